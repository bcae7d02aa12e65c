package common

// URL parameter names understood by the share layer.
const (
	ParamShare             = "share"
	ParamRole              = "role"
	ParamMode              = "mode"
	ParamShowRoleIndicator = "showRoleIndicator"

	FragmentSnapshot = "snapshot"
	FragmentShare    = "share"
)

// AssetScheme prefixes document image references that point into the
// asset store, e.g. "asset:9f86d081...".
const AssetScheme = "asset:"
