// Package interleave distributes media items evenly through a run of text blocks.
package interleave

// Kind identifies what a Block carries.
type Kind int

const (
	KindText Kind = iota
	KindMedia
)

// Media is an image placed between text blocks.
// Credit and Caption are optional and omitted from output when empty.
type Media struct {
	URL     string
	Credit  string
	Caption string
}

// Block is either a text unit or a media unit.
type Block struct {
	Kind  Kind
	Text  string
	Media Media
}

// Text returns a text block.
func Text(s string) Block { return Block{Kind: KindText, Text: s} }

// MediaBlock returns a media block.
func MediaBlock(m Media) Block { return Block{Kind: KindMedia, Media: m} }

// minStride is the smallest number of text blocks between two inserted media items.
const minStride = 2

// Interleave merges media into blocks.
//
// With T text blocks and M media items the stride is max(2, T/(M+1)).
// After the i-th text block (0-based) the next unused item is inserted when
// (i+1) is a multiple of the stride and i is not the last text block.
// Items left over are appended in order, so nothing is dropped.
// Blocks that are not text are copied through and do not count towards T.
func Interleave(blocks []Block, media []Media) []Block {
	out := make([]Block, 0, len(blocks)+len(media))
	if len(media) == 0 {
		return append(out, blocks...)
	}

	total := 0
	for _, b := range blocks {
		if b.Kind == KindText {
			total++
		}
	}

	stride := total / (len(media) + 1)
	if stride < minStride {
		stride = minStride
	}

	next, i := 0, 0
	for _, b := range blocks {
		out = append(out, b)
		if b.Kind != KindText {
			continue
		}
		if next < len(media) && (i+1)%stride == 0 && i != total-1 {
			out = append(out, MediaBlock(media[next]))
			next++
		}
		i++
	}

	for ; next < len(media); next++ {
		out = append(out, MediaBlock(media[next]))
	}
	return out
}

// TextBlocks wraps each paragraph as a text block.
func TextBlocks(paragraphs []string) []Block {
	out := make([]Block, len(paragraphs))
	for i, p := range paragraphs {
		out[i] = Text(p)
	}
	return out
}
