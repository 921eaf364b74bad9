package dataset

import "strings"

// IgnoreIndex marks label positions excluded from loss and metrics.
const IgnoreIndex = -100

// Nucleotide tokens.  Only the four canonical bases are prediction classes;
// TokenN stands in for any ambiguous base and TokenMask for a masked input.
const (
	TokenA = iota
	TokenC
	TokenG
	TokenT
	TokenN
	TokenMask

	NumClasses = TokenT + 1
	VocabSize  = TokenMask + 1
)

var baseTokens = [256]int8{}

func init() {
	for i := range baseTokens {
		baseTokens[i] = TokenN
	}
	for _, p := range []struct {
		b   byte
		tok int8
	}{
		{'A', TokenA}, {'C', TokenC}, {'G', TokenG}, {'T', TokenT},
		{'a', TokenA}, {'c', TokenC}, {'g', TokenG}, {'t', TokenT},
		{'U', TokenT}, {'u', TokenT},
	} {
		baseTokens[p.b] = p.tok
	}
}

// Encode converts a nucleotide string into input tokens and labels.
// Ambiguous bases map to TokenN with label IgnoreIndex.
func Encode(seq string) (tokens, labels []int) {
	tokens = make([]int, len(seq))
	labels = make([]int, len(seq))
	for i := 0; i < len(seq); i++ {
		tok := int(baseTokens[seq[i]])
		tokens[i] = tok
		if tok == TokenN {
			labels[i] = IgnoreIndex
		} else {
			labels[i] = tok
		}
	}
	return tokens, labels
}

// decode renders tokens back into bases; masked positions render as '?'.
func decode(tokens []int) string {
	var sb strings.Builder
	sb.Grow(len(tokens))
	for _, t := range tokens {
		switch t {
		case TokenA:
			sb.WriteByte('A')
		case TokenC:
			sb.WriteByte('C')
		case TokenG:
			sb.WriteByte('G')
		case TokenT:
			sb.WriteByte('T')
		case TokenMask:
			sb.WriteByte('?')
		default:
			sb.WriteByte('N')
		}
	}
	return sb.String()
}

// ClassNames lists the prediction classes in label order.
var ClassNames = []string{"A", "C", "G", "T"}
