// Package tinkradix provides Tink integration for opaque numeral tokens.
// This file contains the KeyManager implementation that registers the
// Feistel permutation with Tink's registry.
package tinkradix

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/google/tink/go/core/registry"
	"github.com/google/tink/go/insecurecleartextkeyset"
	"github.com/google/tink/go/keyset"
	"github.com/google/tink/go/proto/tink_go_proto"
	"github.com/vdparikh/radix/subtle"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	// KeyTypeURL is the type URL for Feistel token keys in Tink's registry.
	KeyTypeURL = "type.googleapis.com/radix.FeistelKey"

	defaultKeySize = 32
)

// KeyManager implements registry.KeyManager for token keys.
//
// Serialized keys are wrapperspb.BytesValue messages holding the raw AES key;
// serialized key formats are wrapperspb.UInt32Value messages holding the key
// size in bytes.
type KeyManager struct {
	typeURL string
}

// NewKeyManager creates a new token key manager.
func NewKeyManager() *KeyManager {
	return &KeyManager{
		typeURL: KeyTypeURL,
	}
}

// Primitive creates an untweaked *subtle.Feistel from the given serialized key.
func (km *KeyManager) Primitive(serializedKey []byte) (interface{}, error) {
	key := new(wrapperspb.BytesValue)
	if err := proto.Unmarshal(serializedKey, key); err != nil {
		return nil, fmt.Errorf("failed to parse key: %w", err)
	}
	if err := validateKeySize(len(key.GetValue())); err != nil {
		return nil, err
	}

	f, err := subtle.NewFeistel(key.GetValue())
	if err != nil {
		return nil, fmt.Errorf("failed to create Feistel: %w", err)
	}
	return f, nil
}

// DoesSupport returns true if this KeyManager supports the given key type URL.
func (km *KeyManager) DoesSupport(typeURL string) bool {
	return typeURL == km.typeURL
}

// TypeURL returns the type URL of the keys managed by this KeyManager.
func (km *KeyManager) TypeURL() string {
	return km.typeURL
}

// NewKey generates a new key according to the given serialized key format.
// An empty format yields an AES-256 key.
func (km *KeyManager) NewKey(serializedKeyFormat []byte) (proto.Message, error) {
	keySize := defaultKeySize
	if len(serializedKeyFormat) > 0 {
		format := new(wrapperspb.UInt32Value)
		if err := proto.Unmarshal(serializedKeyFormat, format); err != nil {
			return nil, fmt.Errorf("failed to parse key format: %w", err)
		}
		keySize = int(format.GetValue())
	}
	if err := validateKeySize(keySize); err != nil {
		return nil, err
	}

	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate random key: %w", err)
	}
	return wrapperspb.Bytes(key), nil
}

// NewKeyData creates a new KeyData from the given serialized key format.
func (km *KeyManager) NewKeyData(serializedKeyFormat []byte) (*tink_go_proto.KeyData, error) {
	key, err := km.NewKey(serializedKeyFormat)
	if err != nil {
		return nil, err
	}
	serializedKey, err := proto.Marshal(key)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize key: %w", err)
	}
	return &tink_go_proto.KeyData{
		TypeUrl:         km.typeURL,
		Value:           serializedKey,
		KeyMaterialType: tink_go_proto.KeyData_SYMMETRIC,
	}, nil
}

var _ registry.KeyManager = (*KeyManager)(nil)

var registerMu sync.Mutex

// Register adds the token KeyManager to Tink's global registry. It is safe to
// call more than once.
func Register() error {
	registerMu.Lock()
	defer registerMu.Unlock()

	if _, err := registry.GetKeyManager(KeyTypeURL); err == nil {
		return nil
	}
	return registry.RegisterKeyManager(NewKeyManager())
}

// KeyTemplate creates a key template for token keys. It generates AES-256
// keys; use KeyTemplateAES128 or KeyTemplateAES192 for smaller keys.
//
//	handle, err := keyset.NewHandle(tinkradix.KeyTemplate())
func KeyTemplate() *tink_go_proto.KeyTemplate {
	return KeyTemplateAES256()
}

// KeyTemplateAES128 creates a key template for AES-128 token keys.
func KeyTemplateAES128() *tink_go_proto.KeyTemplate {
	return keyTemplate(16)
}

// KeyTemplateAES192 creates a key template for AES-192 token keys.
func KeyTemplateAES192() *tink_go_proto.KeyTemplate {
	return keyTemplate(24)
}

// KeyTemplateAES256 creates a key template for AES-256 token keys.
func KeyTemplateAES256() *tink_go_proto.KeyTemplate {
	return keyTemplate(32)
}

func keyTemplate(keySize uint32) *tink_go_proto.KeyTemplate {
	format, err := proto.Marshal(wrapperspb.UInt32(keySize))
	if err != nil {
		panic(fmt.Sprintf("tinkradix: cannot serialize key format: %v", err))
	}
	return &tink_go_proto.KeyTemplate{
		TypeUrl:          KeyTypeURL,
		Value:            format,
		OutputPrefixType: tink_go_proto.OutputPrefixType_RAW,
	}
}

// NewKeysetHandleFromKey creates a keyset handle from a raw 16, 24 or 32 byte
// key, for keys that come from an HSM or an external key management system.
//
// The keyset is unencrypted. In production, encrypt it with an AEAD before
// storing it with keyset.Write.
func NewKeysetHandleFromKey(key []byte) (*keyset.Handle, error) {
	if err := validateKeySize(len(key)); err != nil {
		return nil, err
	}

	keyIDBytes := make([]byte, 4)
	if _, err := rand.Read(keyIDBytes); err != nil {
		return nil, fmt.Errorf("failed to generate key ID: %w", err)
	}
	keyID := binary.BigEndian.Uint32(keyIDBytes)

	serializedKey, err := proto.Marshal(wrapperspb.Bytes(key))
	if err != nil {
		return nil, fmt.Errorf("failed to serialize key: %w", err)
	}

	ks := &tink_go_proto.Keyset{
		PrimaryKeyId: keyID,
		Key: []*tink_go_proto.Keyset_Key{{
			KeyData: &tink_go_proto.KeyData{
				TypeUrl:         KeyTypeURL,
				Value:           serializedKey,
				KeyMaterialType: tink_go_proto.KeyData_SYMMETRIC,
			},
			KeyId:            keyID,
			Status:           tink_go_proto.KeyStatusType_ENABLED,
			OutputPrefixType: tink_go_proto.OutputPrefixType_RAW,
		}},
	}

	return insecurecleartextkeyset.Read(&keyset.MemReaderWriter{Keyset: ks})
}

func validateKeySize(n int) error {
	if n != 16 && n != 24 && n != 32 {
		return fmt.Errorf("invalid key size: %d bytes (must be 16, 24, or 32)", n)
	}
	return nil
}
