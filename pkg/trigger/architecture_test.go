package trigger

import (
	"testing"

	"triggercore/testutil"
)

// The trigger package is the reusable heart of the repository and must
// stay free of internal packages and third-party dependencies so it can
// be embedded anywhere.
func TestTriggerPackageHasNoForbiddenImports(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.InternalImportForbidden,
		"trigger must not depend on internal packages")
	testutil.AssertNoDirectImports(t, ".", testutil.ThirdPartyImportForbidden("triggercore"),
		"trigger must stay standard-library only")
}

func TestTriggerPackageHasNoTransitiveInternalDependency(t *testing.T) {
	testutil.AssertNoTransitiveDependency(t, ".", testutil.InternalImportForbidden,
		"trigger must not reach internal packages transitively")
}
