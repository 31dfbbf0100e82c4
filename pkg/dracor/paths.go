package dracor

import "strings"

// Path is an upstream route built only from fixed literals and validated
// names. The zero Path addresses the API root.
type Path struct {
	parts []string
}

func (p Path) segments() []string {
	return p.parts
}

func (p Path) String() string {
	return strings.Join(p.parts, "/")
}

// PlayResource names a sub-resource below corpora/{corpus}/plays/{play}.
type PlayResource string

const (
	PlayDetails               PlayResource = ""
	PlayMetrics               PlayResource = "metrics"
	PlayCharacters            PlayResource = "characters"
	PlayNetworkCSV            PlayResource = "networkdata/csv"
	PlayRelations             PlayResource = "relations"
	PlayRelationsCSV          PlayResource = "relations/csv"
	PlayTEI                   PlayResource = "tei"
	PlaySpokenText            PlayResource = "spoken-text"
	PlaySpokenTextByCharacter PlayResource = "spoken-text-by-character"
	PlayStageDirections       PlayResource = "stage-directions"
)

func InfoPath() Path {
	return Path{parts: []string{"info"}}
}

func CorporaPath() Path {
	return Path{parts: []string{"corpora"}}
}

func CorpusPath(corpus Name) Path {
	return Path{parts: []string{"corpora", string(corpus)}}
}

func CorpusMetadataPath(corpus Name) Path {
	return Path{parts: []string{"corpora", string(corpus), "metadata"}}
}

func PlayPath(corpus, play Name, resource PlayResource) Path {
	parts := []string{"corpora", string(corpus), "plays", string(play)}
	if resource != PlayDetails {
		parts = append(parts, strings.Split(string(resource), "/")...)
	}
	return Path{parts: parts}
}

func CharacterPath(wikidataID Name) Path {
	return Path{parts: []string{"character", string(wikidataID)}}
}
