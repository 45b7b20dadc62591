package hierarchy

// Tabs says which sections of the web interface a user may open.
type Tabs struct {
	Dashboard    bool `json:"dashboard"`
	Feedbacks    bool `json:"feedbacks"`
	Recognitions bool `json:"recognitions"`
	Mood         bool `json:"humor"`
	Goals        bool `json:"objetivos"`
	Surveys      bool `json:"pesquisas"`
	Evaluations  bool `json:"avaliacoes"`
	Team         bool `json:"team"`
	Analytics    bool `json:"analytics"`
	History      bool `json:"historico"`
}

// TabsFor opens the team and analytics tabs to managers, and the history tab
// only to full-access departments and administrators.
func TabsFor(c Classification, isAdmin bool) Tabs {
	tabs := Tabs{
		Dashboard:    true,
		Feedbacks:    true,
		Recognitions: true,
		Mood:         true,
		Goals:        true,
		Surveys:      true,
		Evaluations:  true,
	}
	full := c.IsFullAccess || isAdmin
	tabs.Team = full || c.IsManager
	tabs.Analytics = tabs.Team
	tabs.History = full
	return tabs
}
