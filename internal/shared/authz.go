package shared

// Role names recognised across the platform.
const (
	RoleAdmin   = "admin"
	RoleStudent = "student"
)

// Permission resources.
const (
	ResourceUsers   = "users"
	ResourceCourses = "courses"
)

// Permission actions.
const (
	ActionCreate = "create"
	ActionRead   = "read"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionEnroll = "enroll"
)
