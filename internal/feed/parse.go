// Package feed parses the broadcast feed's JSON documents into typed messages.
package feed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/park285/cheese-tv/internal/domain"
)

// suffixLen is the trailing " w" / " b" side-to-move marker on update positions,
// counted in characters.
const suffixLen = 2

var (
	envelopeKeys = []string{"t", "d"}
	featureKeys  = []string{"id", "orientation", "players", "fen"}
	playerKeys   = []string{"color", "rating", "seconds", "user"}
	userKeys     = []string{"name", "title", "id"}
	updateKeys   = []string{"fen", "lm", "wc", "bc"}
)

type envelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d"`
}

type rawUser struct {
	Name  *string `json:"name"`
	Title *string `json:"title"`
	ID    *string `json:"id"`
}

type rawPlayer struct {
	Color   *string  `json:"color"`
	Rating  *int     `json:"rating"`
	Seconds *int     `json:"seconds"`
	User    *rawUser `json:"user"`
}

type rawFeature struct {
	ID          *string      `json:"id"`
	Orientation *string      `json:"orientation"`
	Players     *[]rawPlayer `json:"players"`
	FEN         *string      `json:"fen"`
}

type rawUpdate struct {
	FEN *string `json:"fen"`
	LM  *string `json:"lm"`
	WC  *int    `json:"wc"`
	BC  *int    `json:"bc"`
}

// Parse decodes one feed document. Errors wrap ErrSyntax for undecodable bytes
// and one of the domain sentinels otherwise.
func Parse(raw []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	if _, err := exactKeys(raw, envelopeKeys...); err != nil {
		return nil, err
	}
	switch env.T {
	case "featured", "feature", "Feature":
		if absent(env.D) {
			return nil, fmt.Errorf("%w: d", ErrMissingField)
		}
		return parseFeature(env.D)
	case "fen", "Fen":
		if absent(env.D) {
			return nil, fmt.Errorf("%w: d", ErrMissingField)
		}
		return parseUpdate(env.D)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.T)
	}
}

// exactKeys rejects keys that differ from a known field only by case, which
// encoding/json would otherwise accept. Unknown keys are ignored. A value that
// is not an object yields a nil map and no error; the typed decode reports it.
func exactKeys(raw json.RawMessage, fields ...string) (map[string]json.RawMessage, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil
	}
	for k := range m {
		for _, f := range fields {
			if k != f && strings.EqualFold(k, f) {
				return nil, fmt.Errorf("%w: key %q must be %q", ErrMissingField, k, f)
			}
		}
	}
	return m, nil
}

// checkFeatureKeys applies exactKeys to the payload, each player and each user.
func checkFeatureKeys(d json.RawMessage) error {
	m, err := exactKeys(d, featureKeys...)
	if err != nil || m == nil {
		return err
	}
	var players []json.RawMessage
	if err := json.Unmarshal(m["players"], &players); err != nil {
		return nil
	}
	for _, p := range players {
		pm, err := exactKeys(p, playerKeys...)
		if err != nil {
			return err
		}
		if pm == nil {
			continue
		}
		if _, err := exactKeys(pm["user"], userKeys...); err != nil {
			return err
		}
	}
	return nil
}

// stripSuffix removes the last n characters of s.
func stripSuffix(s string, n int) (string, bool) {
	if utf8.RuneCountInString(s) < n {
		return "", false
	}
	end := len(s)
	for i := 0; i < n; i++ {
		_, size := utf8.DecodeLastRuneInString(s[:end])
		end -= size
	}
	return s[:end], true
}

func absent(d json.RawMessage) bool {
	return len(d) == 0 || bytes.Equal(d, []byte("null"))
}

// IsTransient reports whether err came from bytes that were not JSON at all,
// typically a document split across chunk boundaries.
func IsTransient(err error) bool {
	return errors.Is(err, ErrSyntax)
}

// Split returns the newline-delimited documents of a chunk, skipping blank lines.
// Keep-alive newlines therefore produce no documents.
func Split(chunk []byte) [][]byte {
	var docs [][]byte
	for _, line := range bytes.Split(chunk, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		docs = append(docs, line)
	}
	return docs
}

func parseFeature(d json.RawMessage) (*Feature, error) {
	var rf rawFeature
	if err := json.Unmarshal(d, &rf); err != nil {
		return nil, fmt.Errorf("%w: featured: %v", ErrPayload, err)
	}
	if err := checkFeatureKeys(d); err != nil {
		return nil, err
	}
	switch {
	case rf.ID == nil:
		return nil, fmt.Errorf("%w: id", ErrMissingField)
	case rf.Orientation == nil:
		return nil, fmt.Errorf("%w: orientation", ErrMissingField)
	case rf.Players == nil:
		return nil, fmt.Errorf("%w: players", ErrMissingField)
	case rf.FEN == nil:
		return nil, fmt.Errorf("%w: fen", ErrMissingField)
	}

	orientation, ok := domain.ParseColor(*rf.Orientation)
	if !ok {
		return nil, fmt.Errorf("%w: orientation %q", ErrColor, *rf.Orientation)
	}

	white, black, err := assignColors(*rf.Players)
	if err != nil {
		return nil, err
	}

	return &Feature{
		ID:          *rf.ID,
		Orientation: orientation,
		White:       white,
		Black:       black,
		Placement:   *rf.FEN,
	}, nil
}

// assignColors places each entry by its declared color, never by array index.
func assignColors(players []rawPlayer) (white, black domain.PlayerState, err error) {
	if len(players) != 2 {
		return white, black, fmt.Errorf("%w: %d players", ErrColor, len(players))
	}
	var seenWhite, seenBlack bool
	for i, rp := range players {
		ps, perr := playerState(i, rp)
		if perr != nil {
			return white, black, perr
		}
		switch ps.Color {
		case domain.White:
			if seenWhite {
				return white, black, fmt.Errorf("%w: two white players", ErrColor)
			}
			white, seenWhite = ps, true
		case domain.Black:
			if seenBlack {
				return white, black, fmt.Errorf("%w: two black players", ErrColor)
			}
			black, seenBlack = ps, true
		}
	}
	return white, black, nil
}

func playerState(i int, rp rawPlayer) (domain.PlayerState, error) {
	switch {
	case rp.Color == nil:
		return domain.PlayerState{}, fmt.Errorf("%w: players[%d].color", ErrMissingField, i)
	case rp.Rating == nil:
		return domain.PlayerState{}, fmt.Errorf("%w: players[%d].rating", ErrMissingField, i)
	case rp.Seconds == nil:
		return domain.PlayerState{}, fmt.Errorf("%w: players[%d].seconds", ErrMissingField, i)
	case rp.User == nil:
		return domain.PlayerState{}, fmt.Errorf("%w: players[%d].user", ErrMissingField, i)
	case rp.User.Name == nil:
		return domain.PlayerState{}, fmt.Errorf("%w: players[%d].user.name", ErrMissingField, i)
	case rp.User.ID == nil:
		return domain.PlayerState{}, fmt.Errorf("%w: players[%d].user.id", ErrMissingField, i)
	}
	color, ok := domain.ParseColor(*rp.Color)
	if !ok {
		return domain.PlayerState{}, fmt.Errorf("%w: players[%d].color %q", ErrColor, i, *rp.Color)
	}
	return domain.PlayerState{
		Identity: domain.PlayerIdentity{
			Name:  *rp.User.Name,
			Title: rp.User.Title,
			ID:    *rp.User.ID,
		},
		Color:   color,
		Rating:  *rp.Rating,
		Seconds: *rp.Seconds,
	}, nil
}

func parseUpdate(d json.RawMessage) (*Update, error) {
	var ru rawUpdate
	if err := json.Unmarshal(d, &ru); err != nil {
		return nil, fmt.Errorf("%w: fen: %v", ErrPayload, err)
	}
	if _, err := exactKeys(d, updateKeys...); err != nil {
		return nil, err
	}
	switch {
	case ru.FEN == nil:
		return nil, fmt.Errorf("%w: fen", ErrMissingField)
	case ru.LM == nil:
		return nil, fmt.Errorf("%w: lm", ErrMissingField)
	case ru.WC == nil:
		return nil, fmt.Errorf("%w: wc", ErrMissingField)
	case ru.BC == nil:
		return nil, fmt.Errorf("%w: bc", ErrMissingField)
	}
	placement, ok := stripSuffix(*ru.FEN, suffixLen)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrShortPosition, *ru.FEN)
	}
	return &Update{
		Placement:    placement,
		LastMove:     *ru.LM,
		WhiteSeconds: *ru.WC,
		BlackSeconds: *ru.BC,
	}, nil
}
