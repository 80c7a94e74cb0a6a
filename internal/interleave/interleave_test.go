package interleave

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func paras(n int) []Block {
	out := make([]Block, n)
	for i := range out {
		out[i] = Text(fmt.Sprintf("p%d", i))
	}
	return out
}

func pics(n int) []Media {
	out := make([]Media, n)
	for i := range out {
		out[i] = Media{URL: fmt.Sprintf("img%d.jpg", i)}
	}
	return out
}

// shape renders blocks as "p0 p1 [img0] p2" for compact comparisons.
func shape(blocks []Block) string {
	parts := make([]string, len(blocks))
	for i, b := range blocks {
		if b.Kind == KindMedia {
			parts[i] = "[" + strings.TrimSuffix(b.Media.URL, ".jpg") + "]"
			continue
		}
		parts[i] = b.Text
	}
	return strings.Join(parts, " ")
}

func TestInterleave(t *testing.T) {
	tests := []struct {
		name string
		t, m int
		want string
	}{
		{name: "no media is a no-op", t: 3, m: 0, want: "p0 p1 p2"},
		{name: "one image in six paragraphs", t: 6, m: 1, want: "p0 p1 p2 [img0] p3 p4 p5"},
		{name: "two images in nine paragraphs", t: 9, m: 2, want: "p0 p1 p2 [img0] p3 p4 p5 [img1] p6 p7 p8"},
		{name: "stride floor of two", t: 4, m: 3, want: "p0 p1 [img0] p2 p3 [img1] [img2]"},
		{name: "more media than text", t: 2, m: 4, want: "p0 p1 [img0] [img1] [img2] [img3]"},
		{name: "no text", t: 0, m: 2, want: "[img0] [img1]"},
		{name: "single paragraph", t: 1, m: 1, want: "p0 [img0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := shape(Interleave(paras(tt.t), pics(tt.m)))
			if got != tt.want {
				t.Errorf("got  %q\nwant %q", got, tt.want)
			}
		})
	}
}

func TestInterleave_NoMediaReturnsCopy(t *testing.T) {
	in := paras(4)
	out := Interleave(in, nil)
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("blocks changed (-in +out):\n%s", diff)
	}
	out[0].Text = "changed"
	if in[0].Text == "changed" {
		t.Error("output aliases the input slice")
	}
}

func TestInterleave_EveryMediaOnceInOrder(t *testing.T) {
	for tCount := 0; tCount <= 12; tCount++ {
		for m := 1; m <= 8; m++ {
			out := Interleave(paras(tCount), pics(m))

			var seen []string
			texts := 0
			for _, b := range out {
				if b.Kind == KindMedia {
					seen = append(seen, b.Media.URL)
				} else {
					texts++
				}
			}
			if texts != tCount {
				t.Fatalf("T=%d M=%d: %d text blocks in output", tCount, m, texts)
			}
			want := make([]string, m)
			for i := range want {
				want[i] = fmt.Sprintf("img%d.jpg", i)
			}
			if diff := cmp.Diff(want, seen); diff != "" {
				t.Fatalf("T=%d M=%d media mismatch (-want +got):\n%s", tCount, m, diff)
			}
		}
	}
}

func TestInterleave_NothingDirectlyAfterLastTextInMainPass(t *testing.T) {
	// With enough text for every item, no item may be placed after the final
	// text block: the main pass never inserts there and nothing is left over.
	for tCount := 2; tCount <= 20; tCount++ {
		for m := 1; m <= tCount/2-1; m++ {
			out := Interleave(paras(tCount), pics(m))
			if out[len(out)-1].Kind != KindText {
				t.Fatalf("T=%d M=%d: output ends with media: %s", tCount, m, shape(out))
			}
		}
	}
}

func TestInterleave_Deterministic(t *testing.T) {
	a := Interleave(paras(7), pics(3))
	b := Interleave(paras(7), pics(3))
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("non-deterministic output:\n%s", diff)
	}
}

func TestInterleave_PassesThroughNonText(t *testing.T) {
	in := []Block{Text("p0"), MediaBlock(Media{URL: "lead.jpg"}), Text("p1"), Text("p2"), Text("p3")}
	got := shape(Interleave(in, pics(1)))
	want := "p0 [lead] p1 [img0] p2 p3"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
