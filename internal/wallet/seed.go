package wallet

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/massmux/SatsZapBot/internal/errors"
	"github.com/massmux/SatsZapBot/internal/runtime/mutex"
	"github.com/massmux/SatsZapBot/internal/storage"
	"github.com/massmux/SatsZapBot/internal/str"
	log "github.com/sirupsen/logrus"
	"github.com/tyler-smith/go-bip39"
)

const usersKey = "users"

// Seed is the keying material of one user wallet.
type Seed struct {
	*storage.Base
	UserID   int64  `json:"user_id"`
	Mnemonic string `json:"mnemonic"`
}

func seedKey(userID int64) string {
	return fmt.Sprintf("seed:%d", userID)
}

func newSeed(userID int64, mnemonic string) *Seed {
	return &Seed{Base: storage.New(storage.ID(seedKey(userID))), UserID: userID, Mnemonic: mnemonic}
}

// fingerprint separates the sdk storage of different seeds of the same user.
func (s Seed) fingerprint() string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(s.Mnemonic)))[:8]
}

func newMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(128)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

func (g *Gateway) loadSeed(userID int64) (*Seed, error) {
	s := newSeed(userID, "")
	loaded, err := s.Get(s, g.db)
	if err != nil {
		return nil, err
	}
	return loaded.(*Seed), nil
}

// EnsureWallet provisions a wallet for userID unless one exists. It reports whether a new seed was created.
func (g *Gateway) EnsureWallet(userID int64) (created bool, err error) {
	lock := fmt.Sprintf("provision:%d", userID)
	mutex.Lock(lock)
	defer mutex.Unlock(lock)

	if _, err := g.loadSeed(userID); err == nil {
		return false, nil
	}
	mnemonic, err := newMnemonic()
	if err != nil {
		return false, errors.New(errors.WalletError, err)
	}
	created, err = g.db.SetDefault(seedKey(userID), newSeed(userID, mnemonic))
	if err != nil {
		return false, errors.New(errors.WalletError, err)
	}
	if err := g.register(userID); err != nil {
		return created, errors.New(errors.WalletError, err)
	}
	if created {
		log.Infof("[wallet] provisioned wallet for user %d", userID)
	}
	return created, nil
}

func (g *Gateway) register(userID int64) error {
	return g.db.UpdateList(usersKey, func(list []int64) []int64 {
		for _, id := range list {
			if id == userID {
				return list
			}
		}
		return append(list, userID)
	})
}

// HasWallet reports whether userID has been provisioned.
func (g *Gateway) HasWallet(userID int64) bool {
	_, err := g.loadSeed(userID)
	return err == nil
}

// Users returns the registry of all provisioned users.
func (g *Gateway) Users() ([]int64, error) {
	var users []int64
	_, err := g.db.GetValue(usersKey, &users)
	return users, err
}

// Mnemonic returns the recovery phrase of userID, provisioning a wallet if needed.
func (g *Gateway) Mnemonic(userID int64) (string, error) {
	s, err := g.seed(userID)
	if err != nil {
		return "", err
	}
	return s.Mnemonic, nil
}

func (g *Gateway) seed(userID int64) (*Seed, error) {
	if s, err := g.loadSeed(userID); err == nil {
		return s, nil
	}
	if _, err := g.EnsureWallet(userID); err != nil {
		return nil, err
	}
	s, err := g.loadSeed(userID)
	if err != nil {
		return nil, errors.New(errors.WalletError, err)
	}
	return s, nil
}

// Restore replaces the seed of userID with phrase. The phrase must be a valid 12 word mnemonic.
func (g *Gateway) Restore(userID int64, phrase string) error {
	mnemonic := str.NormalizeWords(phrase)
	if len(strings.Fields(mnemonic)) != 12 || !bip39.IsMnemonicValid(mnemonic) {
		return errors.Create(errors.InvalidMnemonicError)
	}
	lock := fmt.Sprintf("provision:%d", userID)
	mutex.Lock(lock)
	defer mutex.Unlock(lock)

	s := newSeed(userID, mnemonic)
	if err := s.Set(s, g.db); err != nil {
		return errors.New(errors.WalletError, err)
	}
	if err := g.register(userID); err != nil {
		return errors.New(errors.WalletError, err)
	}
	log.Infof("[wallet] restored wallet for user %d", userID)
	return nil
}
