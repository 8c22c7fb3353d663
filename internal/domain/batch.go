package domain

// TaskRecord pairs a task with its optional analytics measurement.
type TaskRecord struct {
	Task      *Task
	Analytics *Analytics
}

// ProgramRecord pairs a program with its tasks and optional sales record.
type ProgramRecord struct {
	Program *Program
	Tasks   []TaskRecord
	Sales   *SalesAttribution
}

// ParticipantRecord is one fully transformed input record: the participant,
// its nested programs, and the account it resolved to. The account may be
// shared across records when emails collide.
type ParticipantRecord struct {
	Participant *Participant
	Programs    []ProgramRecord
	Account     *Account
}

// Batch is the transform stage output, in input order, ready for loading.
type Batch []ParticipantRecord
