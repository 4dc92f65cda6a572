package report

import "trapcam/internal/domain"

const (
	LabelEmpty       = "Empty"
	LabelNonEmpty    = "Non-empty"
	LabelLowQuality  = "Class 0 (low quality)"
	LabelHighQuality = "Class 1 (high quality)"
)

// Summarize counts empty and non-empty results. The quality view is the
// emptiness statistic under quality labels; there is no separate quality signal.
func Summarize(records []domain.ResultRecord) domain.Summary {
	var s domain.Summary
	for _, r := range records {
		if r.IsEmpty {
			s.Empty++
		} else {
			s.NonEmpty++
		}
	}
	s.Total = s.Empty + s.NonEmpty

	s.Emptiness = []domain.Count{
		{Label: LabelEmpty, Count: s.Empty},
		{Label: LabelNonEmpty, Count: s.NonEmpty},
	}
	s.Quality = []domain.Count{
		{Label: LabelLowQuality, Count: s.Empty},
		{Label: LabelHighQuality, Count: s.NonEmpty},
	}

	return s
}
