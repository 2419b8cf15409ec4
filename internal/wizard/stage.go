package wizard

import "encoding/json"

// Stage is a step of the intake wizard. Stages are visited strictly in order.
type Stage int

const (
	StagePersonalInfo Stage = iota
	StageIDFront
	StageIDBack
	StageFacial
	StageReview
	StageComplete
)

var stageNames = [...]string{
	StagePersonalInfo: "personal_info",
	StageIDFront:      "id_front",
	StageIDBack:       "id_back",
	StageFacial:       "facial",
	StageReview:       "review",
	StageComplete:     "complete",
}

func (s Stage) String() string {
	if s < StagePersonalInfo || s > StageComplete {
		return "unknown"
	}
	return stageNames[s]
}

// MarshalJSON renders the stage with both its index and its name.
func (s Stage) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Index int    `json:"index"`
		Name  string `json:"name"`
	}{int(s), s.String()})
}

// UnmarshalJSON accepts the object written by MarshalJSON.
func (s *Stage) UnmarshalJSON(b []byte) error {
	var v struct {
		Index int `json:"index"`
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*s = clamp(Stage(v.Index))
	return nil
}

func clamp(s Stage) Stage {
	return min(max(s, StagePersonalInfo), StageComplete)
}
