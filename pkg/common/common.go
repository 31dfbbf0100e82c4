package common

// Corpus is an entry of the corpora list. A corpus is a named collection
// of plays.
type Corpus struct {
	Name        string `json:"name"`
	Title       string `json:"title,omitempty"`
	Acronym     string `json:"acronym,omitempty"`
	Description string `json:"description,omitempty"`
	URI         string `json:"uri,omitempty"`
}

// CorpusDetail is a corpus together with its play list.
type CorpusDetail struct {
	Corpus
	Plays []PlaySummary `json:"plays"`
}

// Author is a playwright as listed by the upstream API.
type Author struct {
	Name      string `json:"name"`
	Fullname  string `json:"fullname,omitempty"`
	Shortname string `json:"shortname,omitempty"`
	Country   string `json:"country,omitempty"`
}

// PlaySummary is a play as it appears in a corpus play list. Year fields
// are nil when unknown.
type PlaySummary struct {
	ID               string   `json:"id,omitempty"`
	Name             string   `json:"name"`
	Title            string   `json:"title"`
	Subtitle         string   `json:"subtitle,omitempty"`
	OriginalTitle    string   `json:"originalTitle,omitempty"`
	Authors          []Author `json:"authors,omitempty"`
	YearNormalized   *int     `json:"yearNormalized,omitempty"`
	YearWritten      *int     `json:"yearWritten,omitempty"`
	YearPrinted      *int     `json:"yearPrinted,omitempty"`
	YearPremiered    *int     `json:"yearPremiered,omitempty"`
	OriginalLanguage string   `json:"originalLanguage,omitempty"`
	WrittenIn        string   `json:"writtenIn,omitempty"`
	PrintedIn        string   `json:"printedIn,omitempty"`
}

// Year returns the first known year in the order normalized, written,
// printed.
func (p PlaySummary) Year() *int {
	switch {
	case p.YearNormalized != nil:
		return p.YearNormalized
	case p.YearWritten != nil:
		return p.YearWritten
	default:
		return p.YearPrinted
	}
}

// FirstAuthor returns the name of the first author or an empty string.
func (p PlaySummary) FirstAuthor() string {
	if len(p.Authors) == 0 {
		return ""
	}
	return p.Authors[0].Name
}

// Segment is a structural unit of a play as reported by the play endpoint.
type Segment struct {
	Type     string   `json:"type"`
	Number   int      `json:"number"`
	Title    string   `json:"title,omitempty"`
	Speakers []string `json:"speakers,omitempty"`
}

// Play is the detailed play record.
type Play struct {
	PlaySummary
	Corpus     string      `json:"corpus,omitempty"`
	Segments   []Segment   `json:"segments,omitempty"`
	Characters []Character `json:"characters,omitempty"`
}

// Character is a dramatis persona with its frequency metrics. Gender is
// nil when unknown.
type Character struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Gender          *string  `json:"gender"`
	IsGroup         bool     `json:"isGroup,omitempty"`
	NumOfScenes     int      `json:"numOfScenes,omitempty"`
	NumOfSpeechActs int      `json:"numOfSpeechActs,omitempty"`
	NumOfWords      int      `json:"numOfWords,omitempty"`
	Degree          float64  `json:"degree,omitempty"`
	WeightedDegree  float64  `json:"weightedDegree,omitempty"`
	Betweenness     float64  `json:"betweenness,omitempty"`
	Closeness       float64  `json:"closeness,omitempty"`
	Eigenvector     float64  `json:"eigenvector,omitempty"`
	WikidataID      string   `json:"wikidataId,omitempty"`
	Aliases         []string `json:"aliases,omitempty"`
}

// GenderOrUnknown returns the upper-case gender or UNKNOWN.
func (c Character) GenderOrUnknown() string {
	if c.Gender == nil || *c.Gender == "" {
		return "UNKNOWN"
	}
	return *c.Gender
}

// NetworkEdge is one row of a play's co-occurrence network. Duplicates
// are preserved as delivered.
type NetworkEdge struct {
	Source string  `json:"source"`
	Type   string  `json:"type,omitempty"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
}

// FormalRelation is an explicitly encoded relation between two characters
// such as parent_of or lovers.
type FormalRelation struct {
	Source   string `json:"source"`
	Type     string `json:"type,omitempty"`
	Target   string `json:"target"`
	Relation string `json:"relation"`
}

// SpeakerTurn is one speech (sp) inside a segment.
type SpeakerTurn struct {
	Speakers []string `json:"speakers"`
	Words    int      `json:"words"`
}

// PlaySegment is an act or scene derived from TEI structure with its
// ordered sequence of speaker turns.
type PlaySegment struct {
	Label    string        `json:"label"`
	Type     string        `json:"type"`
	Number   int           `json:"number"`
	Speakers []string      `json:"speakers"`
	Turns    []SpeakerTurn `json:"turns"`
	Stages   int           `json:"stageDirections"`
}

// Warning records a partial failure that did not abort an analysis.
type Warning struct {
	Corpus  string `json:"corpus,omitempty"`
	Play    string `json:"play,omitempty"`
	Source  string `json:"source,omitempty"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
