package mysql

import (
	"fmt"
	"testing"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestIsDuplicateKey(t *testing.T) {
	t.Run("gorm 翻译后的错误", func(t *testing.T) {
		require.True(t, isDuplicateKey(gorm.ErrDuplicatedKey))
		require.True(t, isDuplicateKey(fmt.Errorf("create: %w", gorm.ErrDuplicatedKey)))
	})

	t.Run("未翻译的 MySQL 1062", func(t *testing.T) {
		require.True(t, isDuplicateKey(&mysqldriver.MySQLError{Number: 1062, Message: "Duplicate entry"}))
		require.True(t, isDuplicateKey(fmt.Errorf("create: %w", &mysqldriver.MySQLError{Number: 1062})))
	})

	t.Run("其他错误不误判", func(t *testing.T) {
		require.False(t, isDuplicateKey(gorm.ErrRecordNotFound))
		require.False(t, isDuplicateKey(&mysqldriver.MySQLError{Number: 1213}))
		require.False(t, isDuplicateKey(nil))
	})
}
