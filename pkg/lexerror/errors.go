package lexerror

import "fmt"

// NotFoundQueryError means a catalog search produced zero matches.
// Recoverable: the user should broaden the query.
type NotFoundQueryError struct {
	Query string
}

func (err NotFoundQueryError) Error() string {
	return fmt.Sprintf("no catalog entries match %q", err.Query)
}

// ----------------------------

// AmbiguousQueryError means a catalog search produced more than one match
// and no selection was supplied. Candidates holds the matching URNs so the
// caller can report what the selection would have been among.
type AmbiguousQueryError struct {
	Query      string
	Count      int
	Candidates []string
}

func (err AmbiguousQueryError) Error() string {
	return fmt.Sprintf("query %q is ambiguous (%d matches)", err.Query, err.Count)
}

// ----------------------------

// NetworkError wraps a transport failure reaching Perseus.
type NetworkError struct {
	URL string
	Err error
}

func (err NetworkError) Error() string {
	return fmt.Sprintf("fetching %s: %v", err.URL, err.Err)
}

func (err NetworkError) Unwrap() error {
	return err.Err
}

// ----------------------------

// NotFoundSourceError means the remote source reports the URN does not
// exist. Distinct from a catalog-level NotFoundQueryError.
type NotFoundSourceError struct {
	URN string
}

func (err NotFoundSourceError) Error() string {
	return fmt.Sprintf("perseus has no word list for %s", err.URN)
}

// ----------------------------

// ParseError means the source markup could not be understood. Partial
// extraction results are discarded wholesale, never truncated.
type ParseError struct {
	Msg string
	Err error
}

func (err ParseError) Error() string {
	if err.Err != nil {
		return fmt.Sprintf("%s: %v", err.Msg, err.Err)
	}
	return err.Msg
}

func (err ParseError) Unwrap() error {
	return err.Err
}

// ----------------------------

// EmptyVocabularyError means extraction succeeded but produced zero usable
// entries. Callers may still build an empty deck; the condition must be
// reported, never swallowed.
type EmptyVocabularyError struct {
	URN string
}

func (err EmptyVocabularyError) Error() string {
	return fmt.Sprintf("word list for %s contains no usable vocabulary", err.URN)
}
