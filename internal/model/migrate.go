package model

import (
	"gorm.io/gorm"
)

// Migrate brings the schema up to date: extensions, tables, the foreign
// keys backing referential integrity, and the composite indexes
// AutoMigrate cannot express.
func Migrate(db *gorm.DB) error {
	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
	}
	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			return err
		}
	}

	if err := db.AutoMigrate(&User{}, &UserRefreshToken{}, &Chat{}, &Message{}); err != nil {
		return err
	}

	// Referential integrity lives in the database, not only in the
	// service-layer delete order: a message insert holds a key-share lock
	// on its chat row, so a racing chat delete serializes against the
	// append instead of leaving orphaned messages behind.
	constraintSQL := []string{
		`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'fk_chats_user') THEN ALTER TABLE chats ADD CONSTRAINT fk_chats_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE RESTRICT; END IF; END $$;`,
		`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'fk_messages_chat') THEN ALTER TABLE messages ADD CONSTRAINT fk_messages_chat FOREIGN KEY (chat_id) REFERENCES chats(id) ON DELETE RESTRICT; END IF; END $$;`,
		`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'fk_user_refresh_tokens_user') THEN ALTER TABLE user_refresh_tokens ADD CONSTRAINT fk_user_refresh_tokens_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE RESTRICT; END IF; END $$;`,
	}
	for _, sql := range constraintSQL {
		if err := db.Exec(sql).Error; err != nil {
			return err
		}
	}

	indexSQL := []string{
		`CREATE INDEX IF NOT EXISTS idx_chats_user_activity ON chats (user_id, last_message_at DESC NULLS LAST, created_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_chat_order ON messages (chat_id, created_at ASC, seq ASC);`,
	}
	for _, sql := range indexSQL {
		if err := db.Exec(sql).Error; err != nil {
			return err
		}
	}

	return nil
}
