// Package extract pulls directed influence relations out of raw wikitext.
//
// Extraction is a pure function of the markup: it performs no network or
// store access. Two passes feed the same output, one over infobox fields
// and one over article sections whose header mentions influence.
package extract

import (
	"regexp"
	"strings"

	"github.com/OFFIS-RIT/lineage/pkg/common"
)

// Relation is one extracted influence candidate for a subject artist.
type Relation struct {
	Target     string
	Kind       common.RelationKind
	Provenance common.Provenance
}

// Edge maps the relation onto the stored edge direction. For
// KindInfluencedBy the target influenced the subject, so the edge points
// from the target to the subject. For KindInfluenced it points from the
// subject to the target.
func (r Relation) Edge(subjectID string) common.InfluenceEdge {
	target := common.Slug(r.Target)
	if r.Kind == common.KindInfluenced {
		return common.InfluenceEdge{
			FromID:     subjectID,
			ToID:       target,
			Kind:       r.Kind,
			Provenance: r.Provenance,
		}
	}
	return common.InfluenceEdge{
		FromID:     target,
		ToID:       subjectID,
		Kind:       r.Kind,
		Provenance: r.Provenance,
	}
}

var (
	reWikiLink      = regexp.MustCompile(`\[\[([^\]]+)\]\]`)
	reInfoboxField  = regexp.MustCompile(`(?i)\|\s*(influences|influenced)\s*=\s*`)
	reFieldEnd      = regexp.MustCompile(`\n\s*\|`)
	reSectionHeader = regexp.MustCompile(`(?m)^(={2,})(.+?)(={2,})[ \t\r]*$`)
	reComment       = regexp.MustCompile(`(?s)<!--.*?-->`)
)

// ignoredTerms drops link targets that are press outlets, places,
// institutions or administrative pages rather than artists. A target is
// dropped when it contains any of the terms.
var ignoredTerms = []string{
	"The Guardian", "Rolling Stone", "AllMusic", "Billboard", "NME",
	"Wikipedia", "Category:", "File:", "Image:", "Help:", "Portal:",
	"United Kingdom", "United States", "London", "Liverpool", "England",
	"RIAA", "BBC", "MTV", "Grammy", "Academy Award", "Star-Club",
	"List of",
}

// Extract returns the influence relations found in markup for the artist
// identified by subjectID. Targets are deduplicated per kind by their
// identifier, so "Bob Dylan" and "Bob_Dylan" count once; the two kinds are
// independent, so the same target may appear once for each. HTML comments
// are ignored.
//
// Relations of kind KindInfluencedBy come first, in the order their targets
// were first seen, followed by KindInfluenced relations.
func Extract(markup string, subjectID string) []Relation {
	if strings.TrimSpace(markup) == "" {
		return nil
	}

	markup = reComment.ReplaceAllString(markup, "")

	c := newCollector(subjectID)
	c.infobox(markup)
	c.sections(markup)

	return c.relations()
}

type bucket struct {
	seen  map[string]struct{}
	items []Relation
}

type collector struct {
	subject      string
	influencedBy bucket
	influenced   bucket
}

func newCollector(subjectID string) *collector {
	return &collector{
		subject:      common.Slug(subjectID),
		influencedBy: bucket{seen: make(map[string]struct{})},
		influenced:   bucket{seen: make(map[string]struct{})},
	}
}

func (c *collector) add(kind common.RelationKind, provenance common.Provenance, targets []string) {
	b := &c.influencedBy
	if kind == common.KindInfluenced {
		b = &c.influenced
	}

	for _, target := range targets {
		id := common.Slug(target)
		if id == c.subject {
			continue
		}
		if _, ok := b.seen[id]; ok {
			continue
		}
		b.seen[id] = struct{}{}
		b.items = append(b.items, Relation{
			Target:     target,
			Kind:       kind,
			Provenance: provenance,
		})
	}
}

func (c *collector) relations() []Relation {
	total := len(c.influencedBy.items) + len(c.influenced.items)
	if total == 0 {
		return nil
	}
	out := make([]Relation, 0, total)
	out = append(out, c.influencedBy.items...)
	out = append(out, c.influenced.items...)
	return out
}

// infobox scans "| influences =" and "| influenced =" fields. A field value
// runs until the next line starting with a pipe or the first closing "}}".
func (c *collector) infobox(markup string) {
	cursor := 0
	for cursor < len(markup) {
		loc := reInfoboxField.FindStringSubmatchIndex(markup[cursor:])
		if loc == nil {
			return
		}
		field := strings.ToLower(markup[cursor+loc[2] : cursor+loc[3]])
		start := cursor + loc[1]

		end := fieldEnd(markup[start:])
		if end < 0 {
			return
		}
		value := markup[start : start+end]
		cursor = start + end

		kind := common.KindInfluencedBy
		if field == "influenced" {
			kind = common.KindInfluenced
		}
		c.add(kind, common.ProvenanceInfobox, parseWikiLinks(value))
	}
}

func fieldEnd(rest string) int {
	end := -1
	if loc := reFieldEnd.FindStringIndex(rest); loc != nil {
		end = loc[0]
	}
	if idx := strings.Index(rest, "}}"); idx >= 0 && (end < 0 || idx < end) {
		end = idx
	}
	return end
}

// sections scans every section whose header mentions influence. The body of
// a section runs until the next header of any level.
func (c *collector) sections(markup string) {
	headers := reSectionHeader.FindAllStringSubmatchIndex(markup, -1)
	for i, loc := range headers {
		header := strings.TrimSpace(markup[loc[4]:loc[5]])
		lower := strings.ToLower(header)
		if !strings.Contains(lower, "influence") {
			continue
		}

		bodyEnd := len(markup)
		if i+1 < len(headers) {
			bodyEnd = headers[i+1][0]
		}
		body := markup[loc[1]:bodyEnd]

		c.add(SectionKind(header), common.ProvenanceSection, parseWikiLinks(body))
	}
}

// SectionKind decides the relation direction from a section header alone.
// "Influenced by" headers list the subject's influences; headers saying
// "influenced" without "by" list artists the subject influenced; any other
// influence header ("Musical style and influences") defaults to the
// subject being influenced by the targets.
func SectionKind(header string) common.RelationKind {
	lower := strings.ToLower(header)
	switch {
	case strings.Contains(lower, "influenced by"):
		return common.KindInfluencedBy
	case strings.Contains(lower, "influenced") && !strings.Contains(lower, "by"):
		return common.KindInfluenced
	default:
		return common.KindInfluencedBy
	}
}

// parseWikiLinks returns the targets of [[Target|Label]] links in text,
// skipping denylisted targets. Labels are discarded.
func parseWikiLinks(text string) []string {
	matches := reWikiLink.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	links := make([]string, 0, len(matches))
	for _, m := range matches {
		target, _, _ := strings.Cut(m[1], "|")
		target = strings.TrimSpace(target)
		if target == "" || isIgnored(target) {
			continue
		}
		links = append(links, target)
	}
	return links
}

func isIgnored(target string) bool {
	for _, term := range ignoredTerms {
		if strings.Contains(target, term) {
			return true
		}
	}
	return false
}
