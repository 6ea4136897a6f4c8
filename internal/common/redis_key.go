package common

const RedisKeyTrackedMessage = "rolebot:tracked_message"
