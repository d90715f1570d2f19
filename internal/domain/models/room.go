// internal/domain/models/room.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultRoomImage is used when a room is created without an image.
const DefaultRoomImage = "https://linda-hoang.com/wp-content/uploads/2014/10/img-placeholder-dark.jpg"

// Room topics.
const (
	TopicDesign     = "Design"
	TopicTechnology = "Technology"
	TopicGaming     = "Gaming"
	TopicEducation  = "Education"
	TopicIT         = "IT"
	TopicGeneral    = "General" // default
	TopicBusiness   = "Business"
)

// RoomTopics is the full set of allowed topic values.
var RoomTopics = []string{
	TopicDesign,
	TopicTechnology,
	TopicGaming,
	TopicEducation,
	TopicIT,
	TopicGeneral,
	TopicBusiness,
}

// Room visibility.
const (
	RoomPublic  = "public" // default
	RoomPrivate = "private"
)

// Task statuses.
const (
	TaskNotStarted = "not started" // default
	TaskInProgress = "in progress"
	TaskFinished   = "finished"
)

// TaskStatuses is the full set of allowed task status values.
var TaskStatuses = []string{TaskNotStarted, TaskInProgress, TaskFinished}

// IsValidTopic reports whether t is one of RoomTopics.
func IsValidTopic(t string) bool { return containsString(RoomTopics, t) }

// IsValidRoomType reports whether t is "public" or "private".
func IsValidRoomType(t string) bool { return t == RoomPublic || t == RoomPrivate }

// IsValidTaskStatus reports whether s is one of TaskStatuses.
func IsValidTaskStatus(s string) bool { return containsString(TaskStatuses, s) }

// Room is a topic space with a contributor roster and embedded
// conversation and resources.
//
// NOTE:
//   - Admin is always one of Contributors at creation time.
//   - Messages, links, files and tasks live inside the room document;
//     they are pushed/pulled with array update operators.
type Room struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title        string               `bson:"title" json:"title"`
	Description  string               `bson:"description" json:"description"`
	Image        string               `bson:"image" json:"image"`
	Topic        string               `bson:"topic" json:"topic"`
	Type         string               `bson:"type" json:"type"`
	Admin        primitive.ObjectID   `bson:"admin" json:"admin"`
	Contributors []primitive.ObjectID `bson:"contributors" json:"contributors"`

	Messages []Message `bson:"messages" json:"messages,omitempty"`
	Links    []Link    `bson:"links" json:"links,omitempty"`
	Files    []File    `bson:"files" json:"files,omitempty"`
	Tasks    []Task    `bson:"tasks" json:"tasks,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasContributor reports whether userID is in r.Contributors.
func (r Room) HasContributor(userID primitive.ObjectID) bool {
	return containsID(r.Contributors, userID)
}

// Message is one entry of a room conversation.
type Message struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Sender    primitive.ObjectID `bson:"sender" json:"sender"`
	Body      string             `bson:"body" json:"body"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Link is a named https URL shared in a room.
type Link struct {
	ID   primitive.ObjectID `bson:"_id" json:"id"`
	Name string             `bson:"name" json:"name"`
	Link string             `bson:"link" json:"link"`
}

// File is an uploaded file; Link points at the file store.
type File struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Sender    primitive.ObjectID `bson:"sender" json:"sender"`
	Link      string             `bson:"link" json:"link"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Task is a unit of work assigned to a user inside a room.
type Task struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	AssignedTo  primitive.ObjectID `bson:"assigned_to" json:"assigned_to"`
	Deadline    *time.Time         `bson:"deadline,omitempty" json:"deadline,omitempty"`
	Status      string             `bson:"status" json:"status"`
}
