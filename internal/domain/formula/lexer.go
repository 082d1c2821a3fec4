package formula

import (
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	num  decimal.Decimal
	pos  int // offset en bytes
}

func tokenize(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		r, size := utf8.DecodeRuneInString(src[i:])
		switch {
		case unicode.IsSpace(r):
			i += size
		case r == '+':
			toks = append(toks, token{kind: tokPlus, text: "+", pos: i})
			i++
		case r == '-':
			toks = append(toks, token{kind: tokMinus, text: "-", pos: i})
			i++
		case r == '*':
			toks = append(toks, token{kind: tokStar, text: "*", pos: i})
			i++
		case r == '/':
			toks = append(toks, token{kind: tokSlash, text: "/", pos: i})
			i++
		case r == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case r == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		case isDigit(r) || r == '.':
			tok, next, err := scanNumber(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
			i = next
		case r == '_' || unicode.IsLetter(r):
			start := i
			for i < len(src) {
				r, size = utf8.DecodeRuneInString(src[i:])
				if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
					break
				}
				i += size
			}
			toks = append(toks, token{kind: tokIdent, text: src[start:i], pos: start})
		default:
			return nil, &Error{Kind: KindSyntax, Pos: i, Msg: "carácter inesperado " + string(r)}
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(src)})
	return toks, nil
}

// scanNumber lee un literal decimal: 12, 12.5 o .5.
func scanNumber(src string, start int) (token, int, error) {
	i := start
	for i < len(src) && isDigit(rune(src[i])) {
		i++
	}
	if i < len(src) && src[i] == '.' {
		i++
		fracStart := i
		for i < len(src) && isDigit(rune(src[i])) {
			i++
		}
		if i == fracStart {
			return token{}, 0, &Error{Kind: KindSyntax, Pos: start, Msg: "número mal formado"}
		}
	}
	text := src[start:i]
	d, err := decimal.NewFromString(text)
	if err != nil {
		return token{}, 0, &Error{Kind: KindSyntax, Pos: start, Msg: "número mal formado"}
	}
	return token{kind: tokNumber, text: text, num: d, pos: start}, i, nil
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
