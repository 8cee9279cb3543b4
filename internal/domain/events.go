package domain

// TopicPersonAdded carries every newly created Person.
const TopicPersonAdded = "PERSON_ADDED"
