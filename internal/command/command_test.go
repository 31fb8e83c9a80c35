package command

import (
	"testing"

	"github.com/qnahub/dispatch-bot/internal/domain"
)

func TestParse_Grammar(t *testing.T) {
	cases := []struct {
		name string
		text string
		want Command
	}{
		{
			name: "live with url",
			text: "/live https://youtu.be/abc12345678",
			want: Command{Kind: KindApply, Destination: domain.DestLiveGratuita, URL: "https://youtu.be/abc12345678"},
		},
		{
			name: "despertos with url",
			text: "/despertos https://www.youtube.com/watch?v=abc12345678",
			want: Command{Kind: KindApply, Destination: domain.DestDespertos, URL: "https://www.youtube.com/watch?v=abc12345678"},
		},
		{
			name: "command is case-insensitive",
			text: "/LIVE https://youtu.be/abc12345678",
			want: Command{Kind: KindApply, Destination: domain.DestLiveGratuita, URL: "https://youtu.be/abc12345678"},
		},
		{
			name: "trailing punctuation stripped",
			text: "/live https://youtu.be/abc12345678.",
			want: Command{Kind: KindApply, Destination: domain.DestLiveGratuita, URL: "https://youtu.be/abc12345678"},
		},
		{
			name: "live url shape",
			text: "/live https://youtube.com/live/abc12345678",
			want: Command{Kind: KindApply, Destination: domain.DestLiveGratuita, URL: "https://youtube.com/live/abc12345678"},
		},
		{
			name: "shorts url shape",
			text: "/live https://www.youtube.com/shorts/abc12345678",
			want: Command{Kind: KindApply, Destination: domain.DestLiveGratuita, URL: "https://www.youtube.com/shorts/abc12345678"},
		},
		{
			name: "explicit lot",
			text: "/link 250829-1432-7F3K https://youtu.be/abc12345678",
			want: Command{Kind: KindApply, LotCode: "250829-1432-7F3K", URL: "https://youtu.be/abc12345678"},
		},
		{
			name: "explicit lot lowercase code normalized",
			text: "/link 250829-1432-7f3k https://youtu.be/abc12345678",
			want: Command{Kind: KindApply, LotCode: "250829-1432-7F3K", URL: "https://youtu.be/abc12345678"},
		},
		{
			name: "undo latest live",
			text: "/undo latest live",
			want: Command{Kind: KindUndo, Destination: domain.DestLiveGratuita},
		},
		{
			name: "undo latest despertos case-insensitive",
			text: "/UNDO LATEST DESPERTOS",
			want: Command{Kind: KindUndo, Destination: domain.DestDespertos},
		},
		{
			name: "bare url binds to default destination",
			text: "https://youtu.be/abc12345678",
			want: Command{Kind: KindApply, Destination: domain.DestDespertos, URL: "https://youtu.be/abc12345678"},
		},
		{
			name: "plain chatter is help",
			text: "bom dia pessoal",
			want: Command{Kind: KindHelp},
		},
		{
			name: "empty text is help",
			text: "   ",
			want: Command{Kind: KindHelp},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Parse(tc.text, domain.DestDespertos)
			if got != tc.want {
				t.Fatalf("Parse(%q) = %+v, want %+v", tc.text, got, tc.want)
			}
		})
	}
}

func TestParse_RejectionsCarryReasons(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"live without url", "/live"},
		{"live with junk url", "/live https://example.com/video"},
		{"link missing url", "/link 250829-1432-7F3K"},
		{"link with bad code", "/link NOPE https://youtu.be/abc12345678"},
		{"undo without destination", "/undo latest"},
		{"undo bare", "/undo"},
		{"undo unknown destination", "/undo latest premium"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Parse(tc.text, domain.DestLiveGratuita)
			if got.Kind != KindHelp {
				t.Fatalf("Parse(%q).Kind = %v, want KindHelp", tc.text, got.Kind)
			}
			if got.Reason == "" {
				t.Fatalf("Parse(%q) should carry a corrective reason", tc.text)
			}
		})
	}
}

func TestParse_NormalizesDecomposedInput(t *testing.T) {
	// "/undo latest despertos" typed on a client that sends NFD; the
	// combining marks must not break token matching elsewhere in the text.
	decomposed := "/undo latest despertos"
	got := Parse(decomposed, domain.DestLiveGratuita)
	if got.Kind != KindUndo || got.Destination != domain.DestDespertos {
		t.Fatalf("unexpected command: %+v", got)
	}
}

func TestCleanURL(t *testing.T) {
	cases := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"https://youtu.be/abc12345678", "https://youtu.be/abc12345678", true},
		{"https://youtu.be/abc12345678!", "https://youtu.be/abc12345678", true},
		{"https://www.youtube.com/watch?v=abc12345678&t=90", "https://www.youtube.com/watch?v=abc12345678&t=90", true},
		{"https://m.youtube.com/watch?v=abc12345678", "https://m.youtube.com/watch?v=abc12345678", true},
		{"https://vimeo.com/12345", "", false},
		{"youtu.be/abc12345678", "", false}, // scheme required
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := CleanURL(tc.in)
		if got != tc.want || ok != tc.wantOK {
			t.Fatalf("CleanURL(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestLotCodeFromReply(t *testing.T) {
	reply := "Data: 29/08/2025\nDestino: Live Gratuita\nLote: 250829-1432-7f3k\nTotal de perguntas: 3"
	if got := LotCodeFromReply(reply); got != "250829-1432-7F3K" {
		t.Fatalf("LotCodeFromReply = %q", got)
	}
	if got := LotCodeFromReply("sem código aqui"); got != "" {
		t.Fatalf("expected empty code, got %q", got)
	}
}
