package anki

import (
	"archive/zip"
	"crypto/sha1"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// An .apkg file is a zip archive holding an SQLite collection
// (collection.anki2, schema version 11) plus a media manifest. Everything
// below reproduces what Anki expects on import; no network or further
// parsing is involved.

const collectionSchemaVersion = 11

const collectionSQL = `
CREATE TABLE col (
	id integer PRIMARY KEY,
	crt integer NOT NULL,
	mod integer NOT NULL,
	scm integer NOT NULL,
	ver integer NOT NULL,
	dty integer NOT NULL,
	usn integer NOT NULL,
	ls integer NOT NULL,
	conf text NOT NULL,
	models text NOT NULL,
	decks text NOT NULL,
	dconf text NOT NULL,
	tags text NOT NULL
);

CREATE TABLE notes (
	id integer PRIMARY KEY,
	guid text NOT NULL,
	mid integer NOT NULL,
	mod integer NOT NULL,
	usn integer NOT NULL,
	tags text NOT NULL,
	flds text NOT NULL,
	sfld text NOT NULL,
	csum integer NOT NULL,
	flags integer NOT NULL,
	data text NOT NULL
);

CREATE TABLE cards (
	id integer PRIMARY KEY,
	nid integer NOT NULL,
	did integer NOT NULL,
	ord integer NOT NULL,
	mod integer NOT NULL,
	usn integer NOT NULL,
	type integer NOT NULL,
	queue integer NOT NULL,
	due integer NOT NULL,
	ivl integer NOT NULL,
	factor integer NOT NULL,
	reps integer NOT NULL,
	lapses integer NOT NULL,
	left integer NOT NULL,
	odue integer NOT NULL,
	odid integer NOT NULL,
	flags integer NOT NULL,
	data text NOT NULL
);

CREATE TABLE revlog (
	id integer PRIMARY KEY,
	cid integer NOT NULL,
	usn integer NOT NULL,
	ease integer NOT NULL,
	ivl integer NOT NULL,
	lastIvl integer NOT NULL,
	factor integer NOT NULL,
	time integer NOT NULL,
	type integer NOT NULL
);

CREATE TABLE graves (
	usn integer NOT NULL,
	oid integer NOT NULL,
	type integer NOT NULL
);

CREATE INDEX ix_notes_usn ON notes (usn);
CREATE INDEX ix_notes_csum ON notes (csum);
CREATE INDEX ix_cards_usn ON cards (usn);
CREATE INDEX ix_cards_nid ON cards (nid);
CREATE INDEX ix_cards_sched ON cards (did, queue, due);
CREATE INDEX ix_revlog_usn ON revlog (usn);
CREATE INDEX ix_revlog_cid ON revlog (cid)
`

const modelName = "Greek Vocabulary"

const cardCSS = `.card {
 font-family: arial;
 font-size: 20px;
 text-align: center;
 color: black;
 background-color: white;
}`

const (
	questionFormat = `{{Greek}}<br><small>Rank: {{Rank}}</small>`
	answerFormat   = `{{FrontSide}}<hr id="answer">{{Translation}}<br><br><small>Lemma: {{Lemma}}</small>`
	latexPre       = "\\documentclass[12pt]{article}\n\\special{papersize=3in,5in}\n\\usepackage[utf8]{inputenc}\n\\usepackage{amssymb,amsmath}\n\\pagestyle{empty}\n\\setlength{\\parindent}{0in}\n\\begin{document}\n"
	latexPost      = "\\end{document}"
)

// fieldSep joins note fields in the flds column.
const fieldSep = "\x1f"

type apkgField struct {
	Name   string   `json:"name"`
	Ord    int      `json:"ord"`
	Font   string   `json:"font"`
	Media  []string `json:"media"`
	RTL    bool     `json:"rtl"`
	Size   int      `json:"size"`
	Sticky bool     `json:"sticky"`
}

type apkgTemplate struct {
	Name  string `json:"name"`
	Ord   int    `json:"ord"`
	Qfmt  string `json:"qfmt"`
	Afmt  string `json:"afmt"`
	Bqfmt string `json:"bqfmt"`
	Bafmt string `json:"bafmt"`
	DID   *int64 `json:"did"`
}

type apkgModel struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Type      int            `json:"type"`
	Mod       int64          `json:"mod"`
	Usn       int            `json:"usn"`
	SortField int            `json:"sortf"`
	DeckID    int64          `json:"did"`
	Fields    []apkgField    `json:"flds"`
	Templates []apkgTemplate `json:"tmpls"`
	CSS       string         `json:"css"`
	LatexPre  string         `json:"latexPre"`
	LatexPost string         `json:"latexPost"`
	Req       []any          `json:"req"`
	Tags      []string       `json:"tags"`
	Vers      []string       `json:"vers"`
}

type apkgDeck struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Desc      string `json:"desc"`
	Conf      int    `json:"conf"`
	Dyn       int    `json:"dyn"`
	Collapsed bool   `json:"collapsed"`
	ExtendNew int    `json:"extendNew"`
	ExtendRev int    `json:"extendRev"`
	Mod       int64  `json:"mod"`
	Usn       int    `json:"usn"`
	LrnToday  [2]int `json:"lrnToday"`
	NewToday  [2]int `json:"newToday"`
	RevToday  [2]int `json:"revToday"`
	TimeToday [2]int `json:"timeToday"`
}

type apkgConf struct {
	ActiveDecks   []int64 `json:"activeDecks"`
	CurDeck       int64   `json:"curDeck"`
	CurModel      string  `json:"curModel"`
	NextPos       int     `json:"nextPos"`
	SortType      string  `json:"sortType"`
	SortBackwards bool    `json:"sortBackwards"`
	AddToCur      bool    `json:"addToCur"`
	CollapseTime  int     `json:"collapseTime"`
	DueCounts     bool    `json:"dueCounts"`
	EstTimes      bool    `json:"estTimes"`
	NewBury       bool    `json:"newBury"`
	NewSpread     int     `json:"newSpread"`
	TimeLim       int     `json:"timeLim"`
}

// dconfJSON is Anki's default options group, referenced by conf=1 in decks.
const dconfJSON = `{"1": {"id": 1, "name": "Default", "replayq": true, "timer": 0, "maxTaken": 60, "autoplay": true, "mod": 0, "usn": 0, "dyn": false, "new": {"bury": true, "delays": [1, 10], "initialFactor": 2500, "ints": [1, 4, 7], "order": 1, "perDay": 20, "separate": true}, "rev": {"bury": true, "ease4": 1.3, "fuzz": 0.05, "ivlFct": 1, "maxIvl": 36500, "minSpace": 1, "perDay": 100}, "lapse": {"delays": [10], "leechAction": 0, "leechFails": 8, "minInt": 1, "mult": 0}}}`

// WriteAPKG serializes the deck to a self-contained .apkg file at path. The
// encoding is idempotent: deck, model and note identifiers derive from the
// deck name and card content, so rebuilding the same deck produces the same
// records.
func WriteAPKG(deck *Deck, path string) error {
	return writeAPKG(deck, path, time.Now)
}

func writeAPKG(deck *Deck, path string, now func() time.Time) error {
	tmp, err := os.MkdirTemp("", "lexitheras-apkg-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmp)

	colPath := filepath.Join(tmp, "collection.anki2")
	if err := writeCollection(deck, colPath, now().UTC()); err != nil {
		return fmt.Errorf("write collection: %w", err)
	}
	if err := writeArchive(colPath, path); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}
	return nil
}

func writeCollection(deck *Deck, colPath string, now time.Time) error {
	conn, err := sql.Open("sqlite3", colPath)
	if err != nil {
		return err
	}
	defer conn.Close()

	for _, s := range strings.Split(collectionSQL, ";") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, err := conn.Exec(s); err != nil {
			return err
		}
	}

	deckID := hashID("deck:" + deck.Name)
	modelID := hashID("model:" + modelName + ":" + deck.Name)
	modSecs := now.Unix()
	modMillis := now.UnixMilli()
	crt := modSecs - modSecs%86400

	conf, models, decks, err := collectionJSON(deck.Name, deckID, modelID, modSecs)
	if err != nil {
		return err
	}

	_, err = conn.Exec(
		`INSERT INTO col (id, crt, mod, scm, ver, dty, usn, ls, conf, models, decks, dconf, tags)
		 VALUES (1, ?, ?, ?, ?, 0, 0, 0, ?, ?, ?, ?, '{}')`,
		crt, modMillis, modMillis, collectionSchemaVersion, conf, models, decks, dconfJSON)
	if err != nil {
		return err
	}

	tx, err := conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	noteStmt, err := tx.Prepare(
		`INSERT INTO notes (id, guid, mid, mod, usn, tags, flds, sfld, csum, flags, data)
		 VALUES (?, ?, ?, ?, -1, '', ?, ?, ?, 0, '')`)
	if err != nil {
		return err
	}
	defer noteStmt.Close()

	cardStmt, err := tx.Prepare(
		`INSERT INTO cards (id, nid, did, ord, mod, usn, type, queue, due,
		 ivl, factor, reps, lapses, left, odue, odid, flags, data)
		 VALUES (?, ?, ?, 0, ?, -1, 0, 0, ?, 0, 0, 0, 0, 0, 0, 0, 0, '')`)
	if err != nil {
		return err
	}
	defer cardStmt.Close()

	noteBase := hashID("notes:" + deck.Name)
	for i, c := range deck.Cards {
		flds := strings.Join(
			[]string{c.Greek, c.Translation, c.Lemma, strconv.Itoa(c.Rank)}, fieldSep)
		noteID := noteBase + int64(i)
		cardID := noteID + int64(1)<<41
		if _, err := noteStmt.Exec(
			noteID, noteGUID(flds), modelID, modSecs, flds, c.Greek, fieldChecksum(c.Greek)); err != nil {
			return err
		}
		if _, err := cardStmt.Exec(cardID, noteID, deckID, modSecs, c.Rank); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func collectionJSON(name string, deckID, modelID, modSecs int64) (conf, models, decks string, err error) {
	confBytes, err := json.Marshal(apkgConf{
		ActiveDecks:  []int64{1},
		CurDeck:      1,
		CurModel:     strconv.FormatInt(modelID, 10),
		NextPos:      1,
		SortType:     "noteFld",
		AddToCur:     true,
		CollapseTime: 1200,
		DueCounts:    true,
		EstTimes:     true,
		NewBury:      true,
	})
	if err != nil {
		return "", "", "", err
	}

	model := apkgModel{
		ID:     modelID,
		Name:   modelName,
		Mod:    modSecs,
		DeckID: deckID,
		Fields: []apkgField{
			{Name: "Greek", Ord: 0, Font: "Arial", Media: []string{}, Size: 20},
			{Name: "Translation", Ord: 1, Font: "Arial", Media: []string{}, Size: 20},
			{Name: "Lemma", Ord: 2, Font: "Arial", Media: []string{}, Size: 20},
			{Name: "Rank", Ord: 3, Font: "Arial", Media: []string{}, Size: 20},
		},
		Templates: []apkgTemplate{
			{Name: "Greek to English", Qfmt: questionFormat, Afmt: answerFormat},
		},
		CSS:       cardCSS,
		LatexPre:  latexPre,
		LatexPost: latexPost,
		Req:       []any{[]any{0, "all", []int{0}}},
		Tags:      []string{},
		Vers:      []string{},
	}
	modelBytes, err := json.Marshal(map[string]apkgModel{
		strconv.FormatInt(modelID, 10): model,
	})
	if err != nil {
		return "", "", "", err
	}

	deckBytes, err := json.Marshal(map[string]apkgDeck{
		"1": {ID: 1, Name: "Default", Conf: 1, Mod: modSecs, ExtendRev: 50},
		strconv.FormatInt(deckID, 10): {
			ID: deckID, Name: name, Conf: 1, Mod: modSecs, ExtendRev: 50,
		},
	})
	if err != nil {
		return "", "", "", err
	}
	return string(confBytes), string(modelBytes), string(deckBytes), nil
}

func writeArchive(colPath, outPath string) error {
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	zw := zip.NewWriter(out)

	colFile, err := os.Open(colPath)
	if err != nil {
		return err
	}
	defer colFile.Close()

	w, err := zw.Create("collection.anki2")
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, colFile); err != nil {
		return err
	}

	// Empty media manifest; the deck carries no audio or images.
	mw, err := zw.Create("media")
	if err != nil {
		return err
	}
	if _, err := mw.Write([]byte("{}")); err != nil {
		return err
	}

	if err := zw.Close(); err != nil {
		return err
	}
	return out.Close()
}

// hashID folds a seed string into Anki's model/deck id range [1<<30, 1<<31).
func hashID(seed string) int64 {
	h := fnv.New64a()
	h.Write([]byte(seed))
	return int64(1)<<30 + int64(h.Sum64()%(1<<30))
}

// noteGUID derives a stable note identifier from the note's field content so
// re-imports update instead of duplicating.
func noteGUID(flds string) string {
	h := fnv.New64a()
	h.Write([]byte(flds))
	return strconv.FormatUint(h.Sum64(), 16)
}

// fieldChecksum is Anki's dupe-check value: the first 8 hex digits of the
// sha1 of the sort field, as an integer.
func fieldChecksum(field string) int64 {
	sum := sha1.Sum([]byte(field))
	v, _ := strconv.ParseInt(hex.EncodeToString(sum[:])[:8], 16, 64)
	return v
}
