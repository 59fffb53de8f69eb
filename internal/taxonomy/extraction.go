package taxonomy

// Location is a canonical meeting place with the phrases that name it.
type Location struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
}

// Executive is a prominent executive recognized by name alone.
type Executive struct {
	Name    string `yaml:"name"`
	Company string `yaml:"company"`
	Title   string `yaml:"title"`
}

// Extraction holds the heuristics used by the meeting extractor.
type Extraction struct {
	Subject          string
	ExcludedNames    []string
	Triggers         []string
	Titles           []string
	BusinessCues     []string
	PoliticalCues    []string
	MaxPoliticalCues int
	WindowSpan       int
	Locations        []Location
	Executives       []Executive
	BlockedEntities  []string
	Nationalities    []string
	NonNameWords     []string
}

type rawExtraction struct {
	Subject          string      `yaml:"subject"`
	ExcludedNames    []string    `yaml:"excluded_names"`
	Triggers         []string    `yaml:"triggers"`
	Titles           []string    `yaml:"titles"`
	BusinessCues     []string    `yaml:"business_cues"`
	PoliticalCues    []string    `yaml:"political_cues"`
	MaxPoliticalCues *int        `yaml:"max_political_cues"`
	WindowSpan       *int        `yaml:"window_span"`
	Locations        []Location  `yaml:"locations"`
	Executives       []Executive `yaml:"executives"`
	BlockedEntities  []string    `yaml:"blocked_entities"`
	Nationalities    []string    `yaml:"nationalities"`
	NonNameWords     []string    `yaml:"non_name_words"`
}

// resolve fills every omitted field from DefaultExtraction.
func (r *rawExtraction) resolve() Extraction {
	out := DefaultExtraction()
	if r == nil {
		return out
	}
	if r.Subject != "" {
		out.Subject = r.Subject
	}
	pick(&out.ExcludedNames, r.ExcludedNames)
	pick(&out.Triggers, r.Triggers)
	pick(&out.Titles, r.Titles)
	pick(&out.BusinessCues, r.BusinessCues)
	pick(&out.PoliticalCues, r.PoliticalCues)
	pick(&out.BlockedEntities, r.BlockedEntities)
	pick(&out.Nationalities, r.Nationalities)
	pick(&out.NonNameWords, r.NonNameWords)
	if r.MaxPoliticalCues != nil {
		out.MaxPoliticalCues = *r.MaxPoliticalCues
	}
	if r.WindowSpan != nil && *r.WindowSpan >= 0 {
		out.WindowSpan = *r.WindowSpan
	}
	if len(r.Locations) > 0 {
		out.Locations = r.Locations
	}
	if len(r.Executives) > 0 {
		out.Executives = r.Executives
	}
	return out
}

func pick(dst *[]string, src []string) {
	if len(src) > 0 {
		*dst = src
	}
}

// DefaultExtraction returns the built-in extraction heuristics.
func DefaultExtraction() Extraction {
	return Extraction{
		Subject:       "Trump",
		ExcludedNames: []string{"Trump", "Biden", "Vance"},
		Triggers: []string{
			"met with", "meets with", "meeting with", "met", "meets", "meeting",
			"hosted", "hosts", "hosting", "welcomed", "welcomes", "sat down with",
			"dinner with", "summit", "call with", "spoke with", "phoned",
		},
		Titles: []string{
			"Chief Executive Officer", "Chief Executive", "Chief Operating Officer",
			"Chief Financial Officer", "Executive Chairman", "Managing Director",
			"Co-Founder", "Founder", "Chairman", "Chairwoman", "President",
			"CEO", "CFO", "COO",
		},
		BusinessCues: []string{
			"ceo", "chief executive", "chairman", "chief", "business leader",
			"executive", "company", "founder", "entrepreneur", "businessman",
			"businesswoman", "tech", "corporation", "industry", "corporate",
			"investor", "billionaire", "magnate",
		},
		PoliticalCues: []string{
			"ukraine", "russia", "venezuela", "maduro", "macron", "zelensky", "iran",
			"foreign leader", "prime minister", "nato", "invasion", "military",
			"war", "sanctions", "diplomacy", "treaty", "ambassador",
		},
		MaxPoliticalCues: 4,
		WindowSpan:       1,
		Locations: []Location{
			{Name: "Mar-a-Lago", Aliases: []string{"mar-a-lago", "mar a lago"}},
			{Name: "White House", Aliases: []string{"white house", "oval office"}},
			{Name: "Trump Tower", Aliases: []string{"trump tower"}},
			{Name: "Bedminster", Aliases: []string{"bedminster"}},
		},
		Executives: []Executive{
			{Name: "Elon Musk", Company: "Tesla", Title: "CEO"},
			{Name: "Tim Cook", Company: "Apple", Title: "CEO"},
			{Name: "Mark Zuckerberg", Company: "Meta", Title: "CEO"},
			{Name: "Sundar Pichai", Company: "Google", Title: "CEO"},
			{Name: "Satya Nadella", Company: "Microsoft", Title: "CEO"},
			{Name: "Jeff Bezos", Company: "Amazon", Title: "Executive Chairman"},
			{Name: "Andy Jassy", Company: "Amazon", Title: "CEO"},
			{Name: "Jensen Huang", Company: "NVIDIA", Title: "CEO"},
			{Name: "Sam Altman", Company: "OpenAI", Title: "CEO"},
			{Name: "Jamie Dimon", Company: "JPMorgan Chase", Title: "CEO"},
			{Name: "Mary Barra", Company: "GM", Title: "CEO"},
			{Name: "Doug McMillon", Company: "Walmart", Title: "CEO"},
			{Name: "Larry Fink", Company: "BlackRock", Title: "CEO"},
			{Name: "Brian Moynihan", Company: "Bank of America", Title: "CEO"},
			{Name: "David Solomon", Company: "Goldman Sachs", Title: "CEO"},
			{Name: "Dara Khosrowshahi", Company: "Uber", Title: "CEO"},
		},
		BlockedEntities: []string{
			"national assembly", "government", "ministry", "parliament", "congress",
			"senate", "administration", "department of", "agency", "commission",
			"federal", "state department", "white house", "embassy", "consulate",
			"republic", "kingdom", "federation", "union", "nation", "country",
			"military", "army", "navy", "defense", "homeland security",
			"foreign affairs", "united states", "european union", "nato", "u.n.",
			"venezuela", "france", "ukraine", "russia", "iran", "mexico", "colombia",
			"denmark", "greenland", "china", "israel", "syria", "iraq", "afghanistan",
			"canada", "britain", "germany", "italy", "spain", "poland", "japan",
			"korea", "brazil", "argentina", "egypt", "turkey", "india", "pakistan",
			"saudi arabia", "united arab emirates", "qatar", "taiwan", "vietnam",
			"thailand", "indonesia", "australia", "new zealand", "south africa",
		},
		Nationalities: []string{
			"danish", "venezuelan", "colombian", "mexican", "iranian", "french",
			"canadian", "british", "german", "italian", "spanish", "japanese",
			"korean", "chinese", "russian", "ukrainian", "israeli", "egyptian",
			"american",
		},
		NonNameWords: []string{
			"president", "ceo", "chairman", "chief", "executive", "officer",
			"company", "corporation", "inc", "llc", "ltd", "business",
			"administration", "department", "agency", "house", "senate",
			"foundation", "project", "act", "services", "secretary", "homeland",
			"security", "border", "national", "service", "supreme", "court",
			"white", "donald", "trump", "united", "states", "north", "south",
			"east", "west", "new", "york", "street", "wall",
		},
	}
}
