package governor

// KernelVersion identifies the governor build. Populated at build time via
// -ldflags; the default here is what a `go build` with no flags reports.
var KernelVersion = "0.1.0-beta.1"

// PolicySchemaVersion is the version of the profile/key shape policy.Load
// understands. Bumped only when the kernel_policy.yaml schema itself
// changes in a way that is not backward compatible.
const PolicySchemaVersion = 1
