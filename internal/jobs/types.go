package jobs

type JobType string

const (
	JobWelcomeEmail  JobType = "welcome_email"
	JobFarewellEmail JobType = "farewell_email"
)

// check to see if the job type is a known constant

func (t JobType) IsValid() bool {
	switch t {
	case JobWelcomeEmail, JobFarewellEmail:
		return true
	default:
		return false
	}
}
