package models

// PersonalSupervisor is a supervisor aggregate: the Users row plus the
// Meetings whose supervisor reference points at it. The meeting list mirrors
// the students' lists; both views are reconstructed from the same stored rows.
type PersonalSupervisor struct {
	User

	// SupervisorCode is the external human-facing code, prefix "PS".
	SupervisorCode string `db:"SupervisorCode"`

	Meetings []Meeting
}

// SeniorTutor is an administrative role with no state beyond its code.
type SeniorTutor struct {
	User

	// SeniorTutorCode is the external human-facing code, prefix "ST".
	SeniorTutorCode string `db:"SeniorTutorCode"`
}
