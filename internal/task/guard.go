package task

// Authorized reports whether a caller may act on a task. Admins may always
// act. A non-admin must own the task, and when a target node is named it
// must match the node the task was submitted against. An unset target node
// means the caller is not asking about any node in particular, so the owner
// check alone decides.
func Authorized(caller, owner, targetNode, originNode string, isAdmin bool) bool {
	if isAdmin {
		return true
	}
	if caller != owner {
		return false
	}
	return targetNode == "" || targetNode == originNode
}
