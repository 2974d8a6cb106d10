package extension

// Wire names of the extension requests.
const (
	MethodJarClassContents      = "kotlin/jarClassContents"
	MethodJarClassContentsAlias = "workspace/jarClassContents"
	MethodBuildOutputLocation   = "kotlin/buildOutputLocation"
	MethodMainClass             = "kotlin/mainClass"
	MethodOverrideMember        = "kotlin/overrideMember"
	MethodCleanWorkspaceDb      = "kotlin/cleanWorkspaceDb"
)
