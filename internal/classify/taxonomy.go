package classify

import "osm-news/internal/config"

type Family string

const (
	FamilyLeague      Family = "league"
	FamilyClub        Family = "club"
	FamilyCompetition Family = "competition"
	FamilyTopic       Family = "topic"
)

// Label is one classification outcome. It matches when any of its
// keywords occurs in the text, case-insensitively.
type Label struct {
	Name     string
	Family   Family
	Keywords []string
}

// DefaultTaxonomy is the built-in rugby league vocabulary. Order is
// significant: it is the tag order and the priority for picking a league,
// club and competition. Women's Super League precedes Super League because
// every mention of the former contains the latter.
func DefaultTaxonomy() []Label {
	labels := []Label{
		{Name: "NRL", Family: FamilyLeague, Keywords: []string{"nrl"}},
		{Name: "Women's Super League", Family: FamilyLeague, Keywords: []string{"women's super league"}},
		{Name: "Super League", Family: FamilyLeague, Keywords: []string{"super league"}},
		{Name: "Championship", Family: FamilyLeague, Keywords: []string{"championship"}},
	}

	clubs := []string{
		"Wigan Warriors", "St Helens", "Leeds Rhinos", "Warrington Wolves",
		"Hull FC", "Hull KR", "Catalans Dragons", "Salford Red Devils",
		"Wakefield Trinity", "Castleford Tigers", "Huddersfield Giants",
		"Brisbane Broncos", "Sydney Roosters", "Melbourne Storm", "Penrith Panthers",
	}
	for _, club := range clubs {
		labels = append(labels, Label{Name: club, Family: FamilyClub, Keywords: []string{club}})
	}

	return append(labels,
		Label{Name: "Grand Final", Family: FamilyCompetition, Keywords: []string{"grand final"}},
		Label{Name: "Challenge Cup", Family: FamilyCompetition, Keywords: []string{"challenge cup"}},
		Label{Name: "State of Origin", Family: FamilyCompetition, Keywords: []string{"state of origin"}},
		Label{Name: "World Cup", Family: FamilyCompetition, Keywords: []string{"world cup"}},
		Label{Name: "Transfer News", Family: FamilyTopic, Keywords: []string{"transfer"}},
		Label{Name: "Injury Updates", Family: FamilyTopic, Keywords: []string{"injury"}},
		Label{Name: "Match Reports", Family: FamilyTopic, Keywords: []string{"match report"}},
		Label{Name: "Player Interviews", Family: FamilyTopic, Keywords: []string{"interview"}},
	)
}

// TaxonomyFromConfig returns the configured labels, or the default taxonomy
// when none are configured.
func TaxonomyFromConfig(cfg config.ClassifierConfig) []Label {
	if len(cfg.Labels) == 0 {
		return DefaultTaxonomy()
	}
	labels := make([]Label, 0, len(cfg.Labels))
	for _, l := range cfg.Labels {
		labels = append(labels, Label{
			Name:     l.Name,
			Family:   Family(l.Family),
			Keywords: append([]string(nil), l.Keywords...),
		})
	}
	return labels
}
