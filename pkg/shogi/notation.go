package shogi

import (
	"fmt"
	"strings"
)

var zenkakuDigits = []string{"", "１", "２", "３", "４", "５", "６", "７", "８", "９"}
var kanjiDigits = []string{"", "一", "二", "三", "四", "五", "六", "七", "八", "九"}

var pieceNames = map[string]string{
	"P": "歩", "L": "香", "N": "桂", "S": "銀", "G": "金", "B": "角", "R": "飛", "K": "玉",
}

var promotedNames = map[string]string{
	"P": "と", "L": "成香", "N": "成桂", "S": "成銀", "B": "馬", "R": "龍",
}

func pieceName(p Piece) string {
	if p.Promoted {
		return promotedNames[p.Kind]
	}
	return pieceNames[p.Kind]
}

// DisplayMove renders a move in KIF notation against the position it is
// played from: "７六歩(77)", "同　歩(23)", "５五角打", "２二飛成(24)".
func (p *Position) DisplayMove(m Move) (string, error) {
	usi, err := m.Parsed()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if last := p.lastTo; last != nil && *last == usi.To {
		b.WriteString("同　")
	} else {
		b.WriteString(zenkakuDigits[usi.To.File])
		b.WriteString(kanjiDigits[usi.To.Rank])
	}
	if usi.Drop {
		b.WriteString(pieceNames[usi.Piece])
		b.WriteString("打")
		return b.String(), nil
	}
	piece := p.PieceAt(usi.From)
	if piece == nil {
		return "", fmt.Errorf("no piece at %s", usi.From)
	}
	b.WriteString(pieceName(*piece))
	if usi.Promote {
		b.WriteString("成")
	} else if canPromote(*piece, usi.From, usi.To) {
		b.WriteString("不成")
	}
	fmt.Fprintf(&b, "(%d%d)", usi.From.File, usi.From.Rank)
	return b.String(), nil
}

// canPromote reports whether moving piece from one square to another
// enters, leaves or stays inside its side's promotion zone.
func canPromote(piece Piece, from, to Square) bool {
	if piece.Promoted || piece.Kind == "K" || piece.Kind == "G" {
		return false
	}
	return inPromotionZone(piece.Color, from) || inPromotionZone(piece.Color, to)
}

func inPromotionZone(c Color, s Square) bool {
	if c == Black {
		return s.Rank <= 3
	}
	return s.Rank >= 7
}
