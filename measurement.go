package pulse

// Measurement is a point-in-time sample produced by a meter: the derived
// id, the wall-clock time of the read in milliseconds, and the value.
type Measurement struct {
	ID        *Id
	Timestamp int64
	Value     float64
}
