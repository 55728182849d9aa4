package pool

// maxCrossings bounds the number of tick crossings a single swap may perform
// before the loop halts and returns a partial fill. Each crossing is a
// storage write; the cap keeps a swap within a host's per-transaction write
// budget. Hitting it is not an error: the caller resumes with another swap.
const maxCrossings = 36

// maxTickSpacing bounds Config.TickSpacing to [1, 16384].
const maxTickSpacing = 16384
