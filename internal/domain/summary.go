package domain

// StarSummary holds aggregate star counts for the repositories resolved in a session.
type StarSummary struct {
	Repos  int     `json:"repos"`
	Total  int     `json:"total"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Max    int     `json:"max"`
}
