package domain

// SourceType identifies a paper provider in configuration, cache keys and metrics.
type SourceType string

const (
	SourceTypeArXiv           SourceType = "arxiv"
	SourceTypeSemanticScholar SourceType = "semantic_scholar"
	SourceTypePubMed          SourceType = "pubmed"
	SourceTypeDOAJ            SourceType = "doaj"
	SourceTypeCORE            SourceType = "core"
	SourceTypeBASE            SourceType = "base"
)

// DisplayName returns the human readable provider name written into Paper.Source.
func (s SourceType) DisplayName() string {
	switch s {
	case SourceTypeArXiv:
		return "arXiv"
	case SourceTypeSemanticScholar:
		return "Semantic Scholar"
	case SourceTypePubMed:
		return "PubMed"
	case SourceTypeDOAJ:
		return "DOAJ"
	case SourceTypeCORE:
		return "CORE"
	case SourceTypeBASE:
		return "BASE"
	default:
		return string(s)
	}
}

// AllSourceTypes lists every supported provider in dispatch order.
func AllSourceTypes() []SourceType {
	return []SourceType{
		SourceTypeArXiv,
		SourceTypeSemanticScholar,
		SourceTypePubMed,
		SourceTypeDOAJ,
		SourceTypeCORE,
		SourceTypeBASE,
	}
}
