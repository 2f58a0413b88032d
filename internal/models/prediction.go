// ABOUTME: Prediction is the structured result of a budget analysis
// ABOUTME: Same shape for success, zero-result and error responses
package models

const (
	MessageAnalysisComplete = "分析が完了しました"
	MessageNoSimilarCases   = "類似の事業が見つかりませんでした"
	messageErrorPrefix      = "エラーが発生しました: "
)

// SimilarCase describes one historical project that contributed to a prediction
type SimilarCase struct {
	ID            int64   `json:"id" yaml:"id"`
	Name          string  `json:"name" yaml:"name"`
	Budget        int64   `json:"budget" yaml:"budget"`
	Rating        Rating  `json:"eval" yaml:"eval"`
	RatingText    string  `json:"evalText" yaml:"eval_text"`
	Details       string  `json:"details" yaml:"details"`
	Similarity    float64 `json:"similarity" yaml:"similarity"`
	Weight        float64 `json:"weight" yaml:"weight"`
	Year          int     `json:"year" yaml:"year"`
	Ministry      string  `json:"ministry" yaml:"ministry"`
	Bureau        string  `json:"bureau" yaml:"bureau"`
	ScaleCategory string  `json:"scale_category" yaml:"scale_category"`
}

// Prediction is returned by every analysis, including failures
type Prediction struct {
	PredictedBudget float64       `json:"predicted_budget" yaml:"predicted_budget"`
	AverageBudget   float64       `json:"average_budget" yaml:"average_budget"`
	CaseCount       int           `json:"case_count" yaml:"case_count"`
	SimilarCases    []SimilarCase `json:"similar_cases" yaml:"similar_cases"`
	Message         string        `json:"message" yaml:"message"`
	Error           bool          `json:"error,omitempty" yaml:"error,omitempty"`
}

// EmptyPrediction is the zero-result response: no case passed the threshold
func EmptyPrediction() Prediction {
	return Prediction{
		SimilarCases: []SimilarCase{},
		Message:      MessageNoSimilarCases,
	}
}

// ErrorPrediction wraps a failure in the zero-result shape with Error set
func ErrorPrediction(err error) Prediction {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Prediction{
		SimilarCases: []SimilarCase{},
		Message:      messageErrorPrefix + msg,
		Error:        true,
	}
}
