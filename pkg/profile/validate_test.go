package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bookwormlabs/jarvisbot/pkg/store"
)

func TestNewServiceValidate(t *testing.T) {
	tok := testTokenizer(t)
	st := newFakeStore()

	testcases := []struct {
		name        string
		cfg         Config
		nilStore    bool
		nilTok      bool
		wantErr     bool
		errContains string
	}{
		{
			name: "valid",
			cfg:  Config{RootKey: "bot"},
		},
		{
			name:        "missing-root-key",
			cfg:         Config{},
			wantErr:     true,
			errContains: "root key",
		},
		{
			name:        "missing-store",
			cfg:         Config{RootKey: "bot"},
			nilStore:    true,
			wantErr:     true,
			errContains: "store",
		},
		{
			name:        "missing-tokenizer",
			cfg:         Config{RootKey: "bot"},
			nilTok:      true,
			wantErr:     true,
			errContains: "tokenizer",
		},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			s := store.Store(st)
			if tc.nilStore {
				s = nil
			}
			tk := tok
			if tc.nilTok {
				tk = nil
			}

			svc, err := NewService(tc.cfg, s, tk)
			if tc.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tc.errContains)
				assert.Nil(t, svc)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, svc)
		})
	}
}

func TestNewServiceDefaults(t *testing.T) {
	svc, err := NewService(Config{RootKey: "bot"}, newFakeStore(), testTokenizer(t))
	assert.NoError(t, err)

	assert.Equal(t, 100, svc.cfg.VectorDims)
	assert.Equal(t, 10, svc.cfg.TrainPasses)
	assert.Equal(t, 5, svc.cfg.ContextWindow)
	assert.Equal(t, 0.7, svc.cfg.MatchThreshold)
	assert.Equal(t, 8, svc.cfg.MaxConversations)
}
