package shogi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// ErrNoGame is returned when a record contains no playable moves.
var ErrNoGame = errors.New("no game found in KIF")

// Ply is one move of a game with its 1-based number.
type Ply struct {
	Number int
	Move   Move
}

// Game is what the KIF reader hands to the replayer.
type Game struct {
	Start Position
	Plies []Ply
}

var moveLineRe = regexp.MustCompile(`^\s*(\d+)\s+(.+?)\s+\(`)
var terminalLineRe = regexp.MustCompile(`^\s*(\d+)\s+(.+?)\s*$`)
var fromSquareRe = regexp.MustCompile(`\((\d)(\d)\)`)

// ReadLines reads a KIF file and returns its lines with line endings
// removed. Shift-JIS and UTF-8 (with or without BOM) are accepted.
func ReadLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], "\r")
	}
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines, nil
}

func Decode(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if utf8.Valid(data) {
		return string(data), nil
	}
	reader := transform.NewReader(bytes.NewReader(data), japanese.ShiftJIS.NewDecoder())
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(decoded) {
		return "", errors.New("failed to decode Shift-JIS KIF")
	}
	return string(decoded), nil
}

// Reader turns KIF lines into a Game. The zero value is ready to use.
type Reader struct{}

func (Reader) ReadGame(lines []string) (*Game, error) {
	return ReadGame(lines)
}

// ReadGame parses the starting position and the move list. Parsing
// stops at the first terminal marker (投了, 中断, ...).
func ReadGame(lines []string) (*Game, error) {
	moves, err := parseKIFMoves(lines)
	if err != nil {
		return nil, err
	}
	if len(moves) == 0 {
		return nil, ErrNoGame
	}
	start, err := initialPosition(lines)
	if err != nil {
		return nil, err
	}
	game := &Game{Start: start, Plies: make([]Ply, 0, len(moves))}
	for i, m := range moves {
		game.Plies = append(game.Plies, Ply{Number: i + 1, Move: StructuredMove(m)})
	}
	return game, nil
}

// VariationPrefix opens a 変化 block. Everything from the first one on
// belongs to side lines, not the game.
const VariationPrefix = "変化"

func IsVariationStart(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), VariationPrefix)
}

func parseKIFMoves(lines []string) ([]USIMove, error) {
	var moves []USIMove
	var prevDest *Square
	for i, line := range lines {
		if IsVariationStart(line) {
			break
		}
		match := moveLineRe.FindStringSubmatch(line)
		if len(match) == 0 {
			// Terminal markers like "投了" may have no clock parenthesis.
			match = terminalLineRe.FindStringSubmatch(line)
		}
		if len(match) == 0 {
			continue
		}
		moveText := strings.TrimSpace(match[2])
		if moveText == "" {
			continue
		}
		if isTerminalMove(moveText) {
			break
		}
		move, err := parseKIFMoveToken(moveText, prevDest)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		moves = append(moves, move)
		dest := move.To
		prevDest = &dest
	}
	return moves, nil
}

func parseKIFMoveToken(token string, prevDest *Square) (USIMove, error) {
	work := strings.TrimSpace(token)
	// Drop the side marker some exporters put in front of the move.
	work = strings.TrimLeft(work, "▲△☗☖")
	var dest Square
	if strings.HasPrefix(work, "同") {
		if prevDest == nil {
			return USIMove{}, errors.New("same-square move without previous destination")
		}
		dest = *prevDest
		work = strings.TrimLeft(strings.TrimPrefix(work, "同"), " 　")
	} else {
		runes := []rune(work)
		if len(runes) < 2 {
			return USIMove{}, fmt.Errorf("invalid move token: %s", token)
		}
		file, ok := parseFileRune(runes[0])
		if !ok {
			return USIMove{}, fmt.Errorf("invalid destination file in %s", token)
		}
		rank, ok := kanjiDigit(runes[1])
		if !ok || rank > 9 {
			return USIMove{}, fmt.Errorf("invalid destination rank in %s", token)
		}
		dest = Square{File: file, Rank: rank}
		work = strings.TrimSpace(string(runes[2:]))
	}

	from, hasFrom := parseFromSquare(work)
	if hasFrom {
		work = fromSquareRe.ReplaceAllString(work, "")
	}

	noPromote := strings.Contains(work, "不成")
	if noPromote {
		work = strings.Replace(work, "不成", "", 1)
	}
	drop := strings.Contains(work, "打")
	if drop {
		work = strings.Replace(work, "打", "", 1)
	}

	def, rest, err := parsePiece(work)
	if err != nil {
		return USIMove{}, err
	}
	promote := !noPromote && strings.Contains(rest, "成")
	if drop {
		if def.promoted {
			return USIMove{}, errors.New("cannot drop promoted piece")
		}
		return USIMove{Drop: true, Piece: def.letter, To: dest}, nil
	}
	if !hasFrom {
		return USIMove{}, errors.New("missing source square")
	}
	return USIMove{From: from, To: dest, Promote: promote}, nil
}

func isTerminalMove(token string) bool {
	switch token {
	case "投了", "中断", "持将棋", "千日手", "詰み", "切れ負け", "反則勝ち", "反則負け", "入玉勝ち", "勝ち宣言":
		return true
	default:
		return false
	}
}

func parseFromSquare(text string) (Square, bool) {
	match := fromSquareRe.FindStringSubmatch(text)
	if len(match) != 3 {
		return Square{}, false
	}
	s := Square{File: int(match[1][0] - '0'), Rank: int(match[2][0] - '0')}
	if !s.valid() {
		return Square{}, false
	}
	return s, true
}

func parseFileRune(r rune) (int, bool) {
	if r >= '1' && r <= '9' {
		return int(r - '0'), true
	}
	if r >= '１' && r <= '９' {
		return int(r-'１') + 1, true
	}
	return 0, false
}

func kanjiDigit(r rune) (int, bool) {
	switch r {
	case '一':
		return 1, true
	case '二':
		return 2, true
	case '三':
		return 3, true
	case '四':
		return 4, true
	case '五':
		return 5, true
	case '六':
		return 6, true
	case '七':
		return 7, true
	case '八':
		return 8, true
	case '九':
		return 9, true
	case '十':
		return 10, true
	default:
		return 0, false
	}
}

type pieceDef struct {
	name     string
	letter   string
	promoted bool
}

// Longest names first so 成銀 wins over 銀.
var pieceDefs = []pieceDef{
	{name: "成銀", letter: "S", promoted: true},
	{name: "成桂", letter: "N", promoted: true},
	{name: "成香", letter: "L", promoted: true},
	{name: "と", letter: "P", promoted: true},
	{name: "馬", letter: "B", promoted: true},
	{name: "龍", letter: "R", promoted: true},
	{name: "竜", letter: "R", promoted: true},
	{name: "王", letter: "K"},
	{name: "玉", letter: "K"},
	{name: "飛", letter: "R"},
	{name: "角", letter: "B"},
	{name: "金", letter: "G"},
	{name: "銀", letter: "S"},
	{name: "桂", letter: "N"},
	{name: "香", letter: "L"},
	{name: "歩", letter: "P"},
}

func parsePiece(text string) (pieceDef, string, error) {
	clean := strings.TrimSpace(text)
	for _, def := range pieceDefs {
		if strings.HasPrefix(clean, def.name) {
			return def, strings.TrimPrefix(clean, def.name), nil
		}
	}
	return pieceDef{}, "", fmt.Errorf("unknown piece in %s", text)
}

// Handicap presets keyed by the 手合割 header value. In handicap games
// the handicap giver (上手, White) moves first.
var handicapSFEN = map[string]string{
	"平手":   StandardSFEN,
	"香落ち":  "lnsgkgsn1/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL w - 1",
	"右香落ち": "1nsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL w - 1",
	"角落ち":  "lnsgkgsnl/1r7/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL w - 1",
	"飛車落ち": "lnsgkgsnl/7b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL w - 1",
	"飛香落ち": "lnsgkgsn1/7b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL w - 1",
	"二枚落ち": "lnsgkgsnl/9/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL w - 1",
	"四枚落ち": "1nsgkgsn1/9/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL w - 1",
	"六枚落ち": "2sgkgs2/9/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL w - 1",
}

// initialPosition resolves the starting position: a board diagram wins,
// then the 手合割 preset, then the even-game default.
func initialPosition(lines []string) (Position, error) {
	if boardLines := collectBoardLines(lines); len(boardLines) > 0 {
		board, err := parseBoardLines(boardLines)
		if err != nil {
			return Position{}, err
		}
		black, white, err := parseHandsCounts(lines)
		if err != nil {
			return Position{}, err
		}
		hand := buildHands(black, white)
		if hand == "" {
			hand = "-"
		}
		return ParseSFEN(fmt.Sprintf("%s %s %s 1", board, parseTurn(lines), hand))
	}
	if preset := headerValue(lines, "手合割"); preset != "" {
		sfen, ok := handicapSFEN[preset]
		if !ok {
			return Position{}, fmt.Errorf("unknown handicap %q without board diagram", preset)
		}
		return ParseSFEN(sfen)
	}
	return ParseSFEN(StandardSFEN)
}

func headerValue(lines []string, key string) string {
	prefixes := []string{key + "：", key + ":"}
	for _, line := range lines {
		trim := strings.TrimSpace(line)
		for _, prefix := range prefixes {
			if strings.HasPrefix(trim, prefix) {
				return strings.TrimSpace(strings.TrimPrefix(trim, prefix))
			}
		}
	}
	return ""
}

func collectBoardLines(lines []string) []string {
	var board []string
	for _, line := range lines {
		trim := strings.TrimSpace(line)
		if !strings.HasPrefix(trim, "|") {
			continue
		}
		// Rows usually carry the rank numeral after the closing bar.
		if end := strings.LastIndex(trim, "|"); end > 0 {
			board = append(board, trim[:end+1])
		}
	}
	return board
}

func parseBoardLines(lines []string) (string, error) {
	if len(lines) < 9 {
		return "", fmt.Errorf("board lines must be 9 rows, got %d", len(lines))
	}
	rows := make([]string, 0, 9)
	for i := 0; i < 9; i++ {
		row, err := parseBoardRow(lines[i])
		if err != nil {
			return "", fmt.Errorf("row %d: %w", i+1, err)
		}
		rows = append(rows, row)
	}
	return strings.Join(rows, "/"), nil
}

func parseBoardRow(line string) (string, error) {
	trim := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(line), "|"), "|")
	runes := []rune(trim)
	var cells []string
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case r == ' ' || r == '\t' || r == '　':
			i++
			continue
		case r == '・':
			cells = append(cells, "")
			i++
			continue
		}
		gote := false
		if r == 'v' {
			gote = true
			i++
			if i >= len(runes) {
				return "", errors.New("dangling gote marker")
			}
		}
		piece, consumed, err := parseBoardPiece(runes[i:])
		if err != nil {
			return "", err
		}
		if gote {
			piece = strings.ToLower(piece)
		}
		cells = append(cells, piece)
		i += consumed
	}
	if len(cells) != 9 {
		return "", fmt.Errorf("expected 9 cells, got %d", len(cells))
	}
	return compressEmpty(cells), nil
}

func parseBoardPiece(runes []rune) (string, int, error) {
	if len(runes) == 0 {
		return "", 0, errors.New("missing piece")
	}
	if runes[0] == '成' && len(runes) > 1 {
		if def, _, err := parsePiece(string(runes[:2])); err == nil && def.promoted {
			return "+" + def.letter, 2, nil
		}
		return "", 0, fmt.Errorf("unknown promoted piece %c", runes[1])
	}
	def, _, err := parsePiece(string(runes[0]))
	if err != nil {
		return "", 0, err
	}
	if def.promoted {
		return "+" + def.letter, 1, nil
	}
	return def.letter, 1, nil
}

func compressEmpty(cells []string) string {
	var b strings.Builder
	empty := 0
	for _, cell := range cells {
		if cell == "" {
			empty++
			continue
		}
		if empty > 0 {
			fmt.Fprintf(&b, "%d", empty)
			empty = 0
		}
		b.WriteString(cell)
	}
	if empty > 0 {
		fmt.Fprintf(&b, "%d", empty)
	}
	return b.String()
}

func parseTurn(lines []string) string {
	turn := headerValue(lines, "手番")
	switch {
	case strings.Contains(turn, "後手"), strings.Contains(turn, "上手"):
		return "w"
	default:
		return "b"
	}
}

func parseHandsCounts(lines []string) (map[string]int, map[string]int, error) {
	black := make(map[string]int)
	white := make(map[string]int)
	for _, line := range lines {
		trim := strings.TrimSpace(line)
		var dst map[string]int
		switch {
		case strings.HasPrefix(trim, "先手の持駒"), strings.HasPrefix(trim, "下手の持駒"):
			dst = black
		case strings.HasPrefix(trim, "後手の持駒"), strings.HasPrefix(trim, "上手の持駒"):
			dst = white
		default:
			continue
		}
		counts, err := parseHandLine(trim)
		if err != nil {
			return nil, nil, err
		}
		for key, val := range counts {
			dst[key] += val
		}
	}
	return black, white, nil
}

func parseHandLine(line string) (map[string]int, error) {
	parts := strings.SplitN(line, "：", 2)
	if len(parts) != 2 {
		parts = strings.SplitN(line, ":", 2)
	}
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid hand line: %s", line)
	}
	text := strings.TrimSpace(parts[1])
	counts := make(map[string]int)
	if text == "なし" {
		return counts, nil
	}
	runes := []rune(text)
	for i := 0; i < len(runes); {
		if runes[i] == ' ' || runes[i] == '　' {
			i++
			continue
		}
		def, _, err := parsePiece(string(runes[i]))
		if err != nil || def.promoted {
			return nil, fmt.Errorf("unknown hand piece %c", runes[i])
		}
		i++
		count := 0
		for i < len(runes) {
			n, ok := kanjiDigit(runes[i])
			if !ok {
				break
			}
			if n == 10 {
				count += 10
			} else {
				count += n
			}
			i++
		}
		if count == 0 {
			count = 1
		}
		counts[def.letter] += count
	}
	return counts, nil
}
