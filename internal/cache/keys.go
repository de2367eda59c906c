package cache

import "github.com/google/uuid"

const AllTasksKey = "tasks:all"

func TaskKey(id uuid.UUID) string {
	return "task:" + id.String()
}

func UserTasksKey(userID uuid.UUID) string {
	return "user_tasks:" + userID.String()
}
