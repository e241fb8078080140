package extract

import (
	"reflect"
	"testing"

	"github.com/OFFIS-RIT/lineage/pkg/common"
)

const beatlesMarkup = `{{Short description|English rock band}}
{{Infobox musical artist
| name = The Beatles
| origin = [[Liverpool]], [[England]]
| influences = {{flatlist|
* [[Elvis Presley]]
* [[Chuck Berry|Berry]]
* [[Little Richard]]
}}
| influenced = [[Oasis (band)|Oasis]], [[Electric Light Orchestra]]
| label = [[Parlophone]]
}}
'''The Beatles''' were an English [[rock music|rock]] band formed in [[Liverpool]] in 1960.

== History ==
They played the [[Star-Club]] in Hamburg and were reviewed by [[Rolling Stone]].

== Musical style and influences ==
Their earliest influences include [[Elvis Presley]], [[Buddy Holly]] and [[Carl Perkins]].
See also [[List of songs recorded by the Beatles]].

=== Legacy ===
Many bands followed, among them [[The Byrds]].

== References ==
{{Reflist}}
`

func TestExtract_InfoboxDirections(t *testing.T) {
	got := Extract(beatlesMarkup, "The_Beatles")

	want := []Relation{
		{Target: "Elvis Presley", Kind: common.KindInfluencedBy, Provenance: common.ProvenanceInfobox},
		{Target: "Chuck Berry", Kind: common.KindInfluencedBy, Provenance: common.ProvenanceInfobox},
		{Target: "Little Richard", Kind: common.KindInfluencedBy, Provenance: common.ProvenanceInfobox},
		{Target: "Buddy Holly", Kind: common.KindInfluencedBy, Provenance: common.ProvenanceSection},
		{Target: "Carl Perkins", Kind: common.KindInfluencedBy, Provenance: common.ProvenanceSection},
		{Target: "Oasis (band)", Kind: common.KindInfluenced, Provenance: common.ProvenanceInfobox},
		{Target: "Electric Light Orchestra", Kind: common.KindInfluenced, Provenance: common.ProvenanceInfobox},
	}

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Extract() =\n%#v\nwant\n%#v", got, want)
	}
}

func TestExtract_EdgeDirection(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   common.InfluenceEdge
	}{
		{
			name:   "infobox influences points target to subject",
			markup: "{{Infobox musical artist\n| influences = [[B]]\n}}",
			want:   common.InfluenceEdge{FromID: "B", ToID: "A", Kind: common.KindInfluencedBy, Provenance: common.ProvenanceInfobox},
		},
		{
			name:   "infobox influenced points subject to target",
			markup: "{{Infobox musical artist\n| influenced = [[C]]\n}}",
			want:   common.InfluenceEdge{FromID: "A", ToID: "C", Kind: common.KindInfluenced, Provenance: common.ProvenanceInfobox},
		},
		{
			name:   "influenced by header behaves like infobox influences",
			markup: "Intro.\n\n== Influenced by ==\n* [[D]]\n",
			want:   common.InfluenceEdge{FromID: "D", ToID: "A", Kind: common.KindInfluencedBy, Provenance: common.ProvenanceSection},
		},
		{
			name:   "influenced header behaves like infobox influenced",
			markup: "Intro.\n\n== Influenced ==\n* [[E F]]\n",
			want:   common.InfluenceEdge{FromID: "A", ToID: "E_F", Kind: common.KindInfluenced, Provenance: common.ProvenanceSection},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rels := Extract(tt.markup, "A")
			if len(rels) != 1 {
				t.Fatalf("expected 1 relation, got %d: %#v", len(rels), rels)
			}
			got := rels[0].Edge("A")
			if got != tt.want {
				t.Fatalf("Edge() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestExtract_BucketsAreIndependent(t *testing.T) {
	markup := "{{Infobox musical artist\n| influences = [[X]]\n| influenced = [[X]]\n}}\n== Influences ==\n[[X]] again.\n"

	got := Extract(markup, "Subject")
	want := []Relation{
		{Target: "X", Kind: common.KindInfluencedBy, Provenance: common.ProvenanceInfobox},
		{Target: "X", Kind: common.KindInfluenced, Provenance: common.ProvenanceInfobox},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Extract() = %#v, want %#v", got, want)
	}
}

func TestExtract_CommentedHeaderStartsNewSection(t *testing.T) {
	markup := "==Influenced==\n[[Oasis (band)|Oasis]]\n==Influences== <!-- sourced -->\n[[Chuck Berry]]\n"

	got := Extract(markup, "The_Beatles")
	want := []Relation{
		{Target: "Chuck Berry", Kind: common.KindInfluencedBy, Provenance: common.ProvenanceSection},
		{Target: "Oasis (band)", Kind: common.KindInfluenced, Provenance: common.ProvenanceSection},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Extract() = %#v, want %#v", got, want)
	}

	edge := got[0].Edge("The_Beatles")
	if edge.FromID != "Chuck_Berry" || edge.ToID != "The_Beatles" {
		t.Fatalf("Chuck Berry edge = %#v, want Chuck_Berry -> The_Beatles", edge)
	}
}

func TestExtract_IgnoresCommentedLinks(t *testing.T) {
	markup := "{{Infobox musical artist\n| influences = [[Muddy Waters]] <!-- [[Robert Johnson]] -->\n}}"

	got := Extract(markup, "Howlin'_Wolf")
	want := []Relation{
		{Target: "Muddy Waters", Kind: common.KindInfluencedBy, Provenance: common.ProvenanceInfobox},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Extract() = %#v, want %#v", got, want)
	}
}

func TestExtract_DeduplicatesByIdentifier(t *testing.T) {
	markup := "{{Infobox musical artist\n| influences = [[Bob Dylan]]\n}}\n== Influences ==\nThey cited [[Bob_Dylan]] often.\n"

	got := Extract(markup, "The_Byrds")
	want := []Relation{
		{Target: "Bob Dylan", Kind: common.KindInfluencedBy, Provenance: common.ProvenanceInfobox},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Extract() = %#v, want %#v", got, want)
	}
}

func TestExtract_SkipsSelfLinks(t *testing.T) {
	markup := "== Influences ==\n[[Black Sabbath]] cite [[Cream (band)|Cream]].\n"
	got := Extract(markup, "Black_Sabbath")
	if len(got) != 1 || got[0].Target != "Cream (band)" {
		t.Fatalf("expected only Cream, got %#v", got)
	}
}

func TestExtract_MalformedMarkup(t *testing.T) {
	tests := []struct {
		name   string
		markup string
	}{
		{name: "empty", markup: ""},
		{name: "whitespace", markup: "   \n\t"},
		{name: "no infobox or sections", markup: "Just prose with a [[Link]]."},
		{name: "unterminated infobox field", markup: "| influences = [[Someone]]"},
		{name: "unrelated section", markup: "== Discography ==\n[[Album]]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Extract(tt.markup, "Subject"); len(got) != 0 {
				t.Fatalf("expected no relations, got %#v", got)
			}
		})
	}
}

func TestSectionKind(t *testing.T) {
	tests := []struct {
		header string
		want   common.RelationKind
	}{
		{header: "Influenced by", want: common.KindInfluencedBy},
		{header: "INFLUENCED BY", want: common.KindInfluencedBy},
		{header: "Influenced", want: common.KindInfluenced},
		{header: "Artists influenced", want: common.KindInfluenced},
		{header: "Influences", want: common.KindInfluencedBy},
		{header: "Musical style and influences", want: common.KindInfluencedBy},
		{header: "Influence", want: common.KindInfluencedBy},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			if got := SectionKind(tt.header); got != tt.want {
				t.Fatalf("SectionKind(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

func TestParseWikiLinks(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "target and label",
			text: "[[Jimi Hendrix|Hendrix]] and [[Cream (band)]]",
			want: []string{"Jimi Hendrix", "Cream (band)"},
		},
		{
			name: "denylist",
			text: "[[BBC Radio 1]] [[United States]] [[File:Photo.jpg|thumb]] [[AllMusic]] [[Bob Dylan]]",
			want: []string{"Bob Dylan"},
		},
		{
			name: "trims whitespace",
			text: "[[  Nina Simone  |Simone]]",
			want: []string{"Nina Simone"},
		},
		{
			name: "no links",
			text: "plain text",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseWikiLinks(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("parseWikiLinks() = %#v, want %#v", got, tt.want)
			}
		})
	}
}
