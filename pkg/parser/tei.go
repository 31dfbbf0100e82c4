package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/OFFIS-RIT/dracor-mcp/pkg/common"
	"github.com/OFFIS-RIT/dracor-mcp/pkg/dracor"
)

// TEINamespace is the namespace URI every TEI element lookup is bound to.
const TEINamespace = "http://www.tei-c.org/ns/1.0"

// TEIDocument is the structural digest of a TEI play.
type TEIDocument struct {
	Title    string
	Authors  []string
	Acts     int
	Scenes   int
	Segments []common.PlaySegment

	SpeechCount int
	StageCount  int
	Speakers    []string

	// Text is the clean text of the <text> element; SpokenText and
	// StageText split it into speeches and stage directions.
	Text       string
	SpokenText string
	StageText  string

	FirstSpeech string
	FirstStage  string

	root *Node
}

// ParseTEI parses a TEI play. Malformed XML, or a document whose root is
// not a TEI element in the TEI namespace, fails with *dracor.ParseError.
func ParseTEI(body []byte) (*TEIDocument, error) {
	root, err := ParseXML(body)
	if err != nil {
		return nil, &dracor.ParseError{Format: dracor.FormatXML, Err: err}
	}
	if !root.Is(TEINamespace, "TEI") {
		return nil, &dracor.ParseError{
			Format: dracor.FormatXML,
			Err:    fmt.Errorf("root element {%s}%s is not a TEI document", root.Name.Space, root.Name.Local),
		}
	}

	doc := &TEIDocument{root: root}
	doc.readHeader()

	text := root.First(TEINamespace, "text")
	if text == nil {
		return nil, &dracor.ParseError{Format: dracor.FormatXML, Err: errors.New("missing text element")}
	}
	doc.readText(text)

	return doc, nil
}

func (d *TEIDocument) readHeader() {
	titleStmt := d.root.First(TEINamespace, "titleStmt")
	if titleStmt == nil {
		return
	}

	titles := titleStmt.Elements(TEINamespace, "title")
	for _, t := range titles {
		if t.Attr("", "type") == "main" {
			d.Title = t.CleanText(nil)
			break
		}
	}
	if d.Title == "" && len(titles) > 0 {
		d.Title = titles[0].CleanText(nil)
	}

	for _, a := range titleStmt.Elements(TEINamespace, "author") {
		if name := a.CleanText(nil); name != "" {
			d.Authors = append(d.Authors, name)
		}
	}
}

func (d *TEIDocument) readText(text *Node) {
	d.Text = text.CleanText(nil)

	speeches := text.Descendants(TEINamespace, "sp")
	stages := text.Descendants(TEINamespace, "stage")
	d.SpeechCount = len(speeches)
	d.StageCount = len(stages)

	seen := make(map[string]bool)
	spoken := make([]string, 0, len(speeches))
	for _, sp := range speeches {
		for _, who := range speakersOf(sp) {
			if !seen[who] {
				seen[who] = true
				d.Speakers = append(d.Speakers, who)
			}
		}
		if s := spokenText(sp); s != "" {
			spoken = append(spoken, s)
		}
	}
	d.SpokenText = strings.Join(spoken, "\n")

	staged := make([]string, 0, len(stages))
	for _, st := range stages {
		if s := st.CleanText(nil); s != "" {
			staged = append(staged, s)
		}
	}
	d.StageText = strings.Join(staged, "\n")

	if len(speeches) > 0 {
		d.FirstSpeech = speeches[0].CleanText(nil)
	}
	if len(staged) > 0 {
		d.FirstStage = staged[0]
	}

	for _, div := range text.Descendants(TEINamespace, "div") {
		switch div.Attr("", "type") {
		case "act":
			d.Acts++
		case "scene":
			d.Scenes++
		}
	}

	d.Segments = segmentsOf(text)
}

// speakersOf returns the ids in sp/@who without the leading '#', or the
// speaker label when @who is missing.
func speakersOf(sp *Node) []string {
	var out []string
	for _, ref := range strings.Fields(sp.Attr("", "who")) {
		if id := strings.TrimPrefix(ref, "#"); id != "" {
			out = append(out, id)
		}
	}
	if len(out) > 0 {
		return out
	}
	if speaker := sp.First(TEINamespace, "speaker"); speaker != nil {
		if label := speaker.CleanText(nil); label != "" {
			return []string{label}
		}
	}
	return nil
}

func spokenText(sp *Node) string {
	return sp.CleanText(func(n *Node) bool {
		return n.Is(TEINamespace, "speaker") || n.Is(TEINamespace, "stage")
	})
}

// WordCount counts whitespace separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// segmentsOf derives one PlaySegment per div that owns speeches or has no
// nested div. Speeches placed directly in the body form a single segment.
func segmentsOf(text *Node) []common.PlaySegment {
	container := text.First(TEINamespace, "body")
	if container == nil {
		container = text
	}

	counters := make(map[string]int)
	var segments []common.PlaySegment

	var visit func(div *Node, labels []string)
	visit = func(div *Node, labels []string) {
		kind := div.Attr("", "type")
		if kind == "" {
			kind = "div"
		}
		counters[kind]++
		number := counters[kind]

		label := kind + " " + strconv.Itoa(number)
		if head := div.First(TEINamespace, "head"); head != nil && ownedBy(head, div) {
			if h := head.CleanText(nil); h != "" {
				label = h
			}
		}
		labels = append(labels, label)

		speeches, stages, nested := ownContent(div)
		if len(speeches) > 0 || len(nested) == 0 {
			segments = append(segments, buildSegment(strings.Join(labels, " / "), kind, number, speeches, stages))
		}
		for _, child := range nested {
			visit(child, labels)
		}
	}

	speeches, stages, nested := ownContent(container)
	if len(speeches) > 0 {
		segments = append(segments, buildSegment("body", "body", 1, speeches, stages))
	}
	for _, div := range nested {
		visit(div, nil)
	}

	return segments
}

// ownContent collects the sp and stage elements below n that are not
// inside a nested div, plus the outermost nested divs.
func ownContent(n *Node) (speeches []*Node, stages int, divs []*Node) {
	for _, child := range n.Children {
		child.walk(func(node *Node) bool {
			switch {
			case node.Is(TEINamespace, "div"):
				divs = append(divs, node)
				return false
			case node.Is(TEINamespace, "sp"):
				speeches = append(speeches, node)
				stages += len(node.Descendants(TEINamespace, "stage"))
				return false
			case node.Is(TEINamespace, "stage"):
				stages++
				return false
			}
			return true
		})
	}
	return speeches, stages, divs
}

// ownedBy reports whether no div lies between n and div.
func ownedBy(n, div *Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p == div {
			return true
		}
		if p.Is(TEINamespace, "div") {
			return false
		}
	}
	return false
}

func buildSegment(label, kind string, number int, speeches []*Node, stages int) common.PlaySegment {
	seg := common.PlaySegment{
		Label:    label,
		Type:     kind,
		Number:   number,
		Speakers: []string{},
		Turns:    make([]common.SpeakerTurn, 0, len(speeches)),
		Stages:   stages,
	}
	seen := make(map[string]bool)
	for _, sp := range speeches {
		who := speakersOf(sp)
		for _, id := range who {
			if !seen[id] {
				seen[id] = true
				seg.Speakers = append(seg.Speakers, id)
			}
		}
		if who == nil {
			who = []string{}
		}
		seg.Turns = append(seg.Turns, common.SpeakerTurn{
			Speakers: who,
			Words:    WordCount(spokenText(sp)),
		})
	}
	return seg
}
