package rbac

// Default policy for the training portal.
var RolePermissions = map[string][]string{
	"learner": {
		"progress:view",
		"questionnaire:view",
		"questionnaire:submit",
		"document:view",
		"document:sign",
	},
	"trainer": {
		"progress:view",
		"progress:view-all",
		"questionnaire:view",
		"template:manage",
		"learner:list",
	},
	"admin": {
		"*", // everything
	},
}
