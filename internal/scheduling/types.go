package scheduling

// Status identifies the lifecycle state of an appointment.
type Status string

const (
	// StatusConfirmed marks an appointment that occupies its time slot.
	StatusConfirmed Status = "confirmed"
	// StatusCancelled marks inert history; cancelled appointments never
	// participate in availability or conflict computation.
	StatusCancelled Status = "cancelled"
)

// Appointment is the scheduling view of a booking: the fields the availability
// calculator, conflict detector and reschedule coordinator operate on. Client
// linking data and free text stay opaque to this package.
type Appointment struct {
	ID              string
	OwnerID         string
	Title           string
	Date            string // "YYYY-MM-DD"
	StartTime       string // "HH:MM", minute granularity
	DurationMinutes int
	Status          Status
}

// Settings carries the owner's availability configuration.
type Settings struct {
	SlotGranularityMinutes int
	DefaultDurationMinutes int
	BufferMinutes          int
	MinAdvanceHours        int
	MaxAdvanceDays         int
}

// DefaultSettings mirrors the configuration applied when the owner has never
// saved availability settings.
func DefaultSettings() Settings {
	return Settings{
		SlotGranularityMinutes: 10,
		DefaultDurationMinutes: 60,
		BufferMinutes:          15,
	}
}

// Rule restricts bookable windows on a given weekday, independent from
// existing-appointment occupancy.
type Rule struct {
	ID        string
	DayOfWeek int    // 0 (Sunday) through 6 (Saturday)
	StartTime string // "HH:MM"
	EndTime   string // "HH:MM"
	Enabled   bool
}
