package domain

import "time"

// Post представляет пост в ленте.
type Post struct {
	ID        string    `json:"postId" bson:"postId" gorm:"column:post_id;type:varchar(64);primaryKey"`
	UserID    string    `json:"userId" bson:"userId" gorm:"column:user_id;type:varchar(255);not null;index"`
	Text      string    `json:"post" bson:"post" gorm:"column:post;type:text;not null"`
	Image     string    `json:"postImage,omitempty" bson:"postImage" gorm:"column:post_image;type:text"`
	Category  string    `json:"category" bson:"category" gorm:"type:varchar(255)"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt" gorm:"not null;index"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt" gorm:"not null"`
}

// Like - отметка "в избранное". Key = LikeKey(UserID, PostID), одна на пару (user, post).
type Like struct {
	Key       string    `json:"-" bson:"_id" gorm:"column:like_key;type:varchar(512);primaryKey"`
	ID        string    `json:"likeId" bson:"likeId" gorm:"column:like_id;type:varchar(64);not null"`
	UserID    string    `json:"userId" bson:"userId" gorm:"column:user_id;type:varchar(255);not null;index"`
	PostID    string    `json:"postId" bson:"postId" gorm:"column:post_id;type:varchar(64);not null;index"`
	CreatedAt time.Time `json:"likeCreatedAt" bson:"likeCreatedAt" gorm:"column:like_created_at;not null"`
}

// LikeKey строит составной ключ лайка. Единственное место, где этот ключ собирается.
func LikeKey(userID, postID string) string {
	return userID + postID
}

// Comment представляет комментарий к посту.
type Comment struct {
	ID        string    `json:"commentId" bson:"commentId" gorm:"column:comment_id;type:varchar(64);primaryKey"`
	UserID    string    `json:"userId" bson:"userId" gorm:"column:user_id;type:varchar(255);not null"`
	PostID    string    `json:"postId" bson:"postId" gorm:"column:post_id;type:varchar(64);not null;index"`
	Text      string    `json:"commentText" bson:"commentText" gorm:"column:comment_text;type:text;not null"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt" gorm:"not null"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt" gorm:"not null"`
}

// Notification - уведомление получателю UserID.
type Notification struct {
	ID        string    `json:"notificationId" bson:"notificationId" gorm:"column:notification_id;type:uuid;primaryKey"`
	UserID    string    `json:"userId" bson:"userId" gorm:"column:user_id;type:varchar(255);not null;index"`
	Text      string    `json:"notificationText" bson:"notificationText" gorm:"column:notification_text;type:text;not null"`
	HasRead   bool      `json:"hasRead" bson:"hasRead" gorm:"column:has_read;not null;default:false"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt" gorm:"not null"`
}

// User - запись пользователя. Сервис ленты только читает её.
type User struct {
	ID         string   `json:"userId" bson:"userId" gorm:"column:user_id;type:varchar(255);primaryKey"`
	Username   string   `json:"username" bson:"username" gorm:"type:varchar(255)"`
	FullName   string   `json:"fullName" bson:"fullName" gorm:"column:full_name;type:varchar(255)"`
	ProfilePic string   `json:"profilePic" bson:"profilePic" gorm:"column:profile_pic;type:text"`
	Country    string   `json:"country" bson:"country" gorm:"type:varchar(255)"`
	Interests  []string `json:"interests" bson:"interests" gorm:"type:text;serializer:json"`
	Admin      bool     `json:"-" bson:"admin" gorm:"not null;default:false"`
}

// Follow - ребро социального графа: FollowerID подписан на FollowingID.
type Follow struct {
	FollowerID  string `json:"followerUserId" bson:"followerUserId" gorm:"column:follower_user_id;type:varchar(255);primaryKey"`
	FollowingID string `json:"followingUserId" bson:"followingUserId" gorm:"column:following_user_id;type:varchar(255);primaryKey"`
}

// UserProjection - данные автора, попадающие в PostView.
type UserProjection struct {
	Username   string `json:"username"`
	FullName   string `json:"fullName"`
	ProfilePic string `json:"profilePic"`
	Country    string `json:"country"`
}

// Projection возвращает проекцию пользователя для представления поста.
func (u *User) Projection() UserProjection {
	return UserProjection{
		Username:   u.Username,
		FullName:   u.FullName,
		ProfilePic: u.ProfilePic,
		Country:    u.Country,
	}
}

// PostView - денормализованное представление поста. Не хранится, собирается на каждое чтение.
type PostView struct {
	Post
	CreatedAtString string         `json:"createdAtString"`
	UpdatedAtString string         `json:"updatedAtString"`
	TotalLikes      int            `json:"totalLikes"`
	TotalComment    int            `json:"totalComment"`
	HasLikePost     bool           `json:"hasLikePost"`
	User            UserProjection `json:"user"`
}

// CommentAuthor - данные автора комментария.
type CommentAuthor struct {
	FullName   string `json:"fullName"`
	ProfilePic string `json:"profilePic"`
	Country    string `json:"country"`
}

// CommentView - комментарий вместе с автором.
type CommentView struct {
	Comment
	CreatedAtString string        `json:"createdAtString"`
	UpdatedAtString string        `json:"updatedAtString"`
	User            CommentAuthor `json:"user"`
}

// FeedMode выбирает набор кандидатов ленты.
type FeedMode string

const (
	ModeForYou    FeedMode = "for-you"
	ModeFollowing FeedMode = "following"
)

// ParseFeedMode: всё, кроме "following", - это "for-you".
func ParseFeedMode(s string) FeedMode {
	if FeedMode(s) == ModeFollowing {
		return ModeFollowing
	}
	return ModeForYou
}

// DeleteKind - коллекция, из которой удаляется запись.
type DeleteKind string

const (
	KindPost    DeleteKind = "post"
	KindComment DeleteKind = "comment"
)

// ParseDeleteKind: всё, кроме "post", означает комментарий.
func ParseDeleteKind(s string) DeleteKind {
	if DeleteKind(s) == KindPost {
		return KindPost
	}
	return KindComment
}
