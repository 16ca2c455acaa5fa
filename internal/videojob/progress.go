package videojob

// Stage groups progress updates by lifecycle phase.
type Stage string

const (
	StageStarting   Stage = "starting"
	StagePolling    Stage = "polling"
	StageFinalizing Stage = "finalizing"
)

// Update is one human-readable progress message. Poll is the number of status
// checks started so far.
type Update struct {
	Stage   Stage  `json:"stage"`
	Message string `json:"message"`
	Poll    int    `json:"poll"`
}

const (
	StartMessage    = "Starting video generation... This can take a few minutes."
	FinalizeMessage = "Video generation complete! Fetching video..."
)

// PollMessages rotate while the remote job runs. They do not reflect real
// progress; the service reports none.
var PollMessages = [...]string{
	"Analyzing the prompt and image...",
	"Storyboarding the scene...",
	"Rendering initial frames...",
	"Applying visual effects...",
	"Finalizing the video render...",
	"Almost there, preparing the video file...",
}

// PollMessage returns the message shown before status check number poll+1.
func PollMessage(poll int) string {
	if poll < 0 {
		poll = 0
	}
	return PollMessages[poll%len(PollMessages)]
}
