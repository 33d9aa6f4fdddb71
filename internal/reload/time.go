package reload

import "time"

// now is a seam tests can override to assert on event timestamps.
var now = time.Now
