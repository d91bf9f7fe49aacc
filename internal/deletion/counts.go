package deletion

import (
	"gorm.io/gorm"
)

// DataCounts is the per-category tally of what a deletion would remove.
// Fields are always populated; a user with no data gets zeroes.
type DataCounts struct {
	Students       int64 `gorm:"column:students" json:"students"`
	Notes          int64 `gorm:"column:notes" json:"notes"`
	Flashcards     int64 `gorm:"column:flashcards" json:"flashcards"`
	Sessions       int64 `gorm:"column:sessions" json:"sessions"`
	AIInteractions int64 `gorm:"column:ai_interactions" json:"ai_interactions"`
}

// CountUserData aggregates every dependent table in one round-trip. The
// previous implementation issued five sequential COUNT queries; this is the
// single-JOIN replacement. DISTINCT on each joined primary key keeps the
// join fan-out from inflating the other counts.
func CountUserData(db *gorm.DB, userID uint) (*DataCounts, error) {
	var counts DataCounts
	err := db.Raw(`
		SELECT
			COUNT(DISTINCT st.id)  AS students,
			COUNT(DISTINCT n.id)   AS notes,
			COUNT(DISTINCT f.id)   AS flashcards,
			COUNT(DISTINCT ss.id)  AS sessions,
			COUNT(DISTINCT ai.id)  AS ai_interactions
		FROM students st
		LEFT JOIN notes n            ON n.student_id = st.id
		LEFT JOIN flashcards f       ON f.student_id = st.id
		LEFT JOIN study_sessions ss  ON ss.student_id = st.id
		LEFT JOIN ai_interactions ai ON ai.student_id = st.id
		WHERE st.user_id = ?`, userID).Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return &counts, nil
}
