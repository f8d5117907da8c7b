package ntag424

import (
	"encoding/hex"
	"errors"
	"testing"
)

func TestParseFileSettingsPlainNoSDM(t *testing.T) {
	data := mustHex(t, "0000e0ee000100")
	got, err := ParseFileSettings(data)
	if err != nil {
		t.Fatalf("ParseFileSettings: %v", err)
	}
	if got.FileType != 0 {
		t.Fatalf("FileType = %d, want 0", got.FileType)
	}
	if got.CommMode != CommModePlain {
		t.Fatalf("CommMode = %v, want plain", got.CommMode)
	}
	if got.FileSize != 256 {
		t.Fatalf("FileSize = %d, want 256", got.FileSize)
	}
	want := FileAccessRights{Read: 14, Write: 14, ReadWrite: 14, Change: 0}
	if got.Access != want {
		t.Fatalf("Access = %+v, want %+v", got.Access, want)
	}
	if got.SDMOptions != nil {
		t.Fatalf("SDMOptions = %+v, want nil", got.SDMOptions)
	}
}

func TestParseFileSettingsRichSDM(t *testing.T) {
	data := mustHex(t, "0040eeee000100d1fe001f00004400004400002000006a0000")
	got, err := ParseFileSettings(data)
	if err != nil {
		t.Fatalf("ParseFileSettings: %v", err)
	}
	if got.SDMOptions == nil {
		t.Fatal("expected SDMOptions to be present")
	}
	sdm := got.SDMOptions
	if !sdm.PICCDataOffsetPresent || sdm.PICCDataOffset != 31 {
		t.Fatalf("PICCDataOffset = (%v, %d), want (true, 31)", sdm.PICCDataOffsetPresent, sdm.PICCDataOffset)
	}
	if !sdm.MACInputOffsetPresent || sdm.MACInputOffset != 68 {
		t.Fatalf("MACInputOffset = (%v, %d), want (true, 68)", sdm.MACInputOffsetPresent, sdm.MACInputOffset)
	}
	if !sdm.MACOffsetPresent || sdm.MACOffset != 106 {
		t.Fatalf("MACOffset = (%v, %d), want (true, 106)", sdm.MACOffsetPresent, sdm.MACOffset)
	}
	if sdm.EncryptedFileData == nil || sdm.EncryptedFileData.Offset != 68 || sdm.EncryptedFileData.Length != 32 {
		t.Fatalf("EncryptedFileData = %+v, want {Offset:68 Length:32}", sdm.EncryptedFileData)
	}
}

func TestSerializeFileSettingsPlainFreeAccess(t *testing.T) {
	fs := &FileSettings{
		CommMode: CommModePlain,
		Access:   FileAccessRights{Read: 14, Write: 14, ReadWrite: 14, Change: 14},
	}
	got, err := SerializeFileSettings(fs, nil)
	if err != nil {
		t.Fatalf("SerializeFileSettings: %v", err)
	}
	if hex.EncodeToString(got) != "00eeee" {
		t.Fatalf("got %s, want 00eeee", hex.EncodeToString(got))
	}
}

func TestSerializeFileSettingsCommModeByte(t *testing.T) {
	cases := []struct {
		mode CommMode
		want string
	}{
		{CommModeMAC, "010000"},
		{CommModeFull, "030000"},
	}
	for _, tc := range cases {
		fs := &FileSettings{CommMode: tc.mode}
		got, err := SerializeFileSettings(fs, nil)
		if err != nil {
			t.Fatalf("SerializeFileSettings(%v): %v", tc.mode, err)
		}
		if hex.EncodeToString(got) != tc.want {
			t.Fatalf("mode %v: got %s, want %s", tc.mode, hex.EncodeToString(got), tc.want)
		}
	}
}

func TestSerializeFileSettingsSDMCrossFieldValidity(t *testing.T) {
	params := &TagParams{FileSize: 256, EncodedUIDLength: 14, EncodedReadCounterLength: 6, PICCDataLength: 16}

	t.Run("picc data offset forbidden when meta read is 0xF", func(t *testing.T) {
		fs := &FileSettings{
			CommMode: CommModePlain,
			SDMOptions: &SdmOptions{
				PICCDataOffsetPresent: true,
				PICCDataOffset:        10,
				Access:                SDMAccessRights{MetaRead: 0x0F, FileRead: 0x0F, CounterRetrieval: 0x0F},
			},
		}
		_, err := SerializeFileSettings(fs, params)
		assertValidationError(t, err)
	})

	t.Run("picc data offset required when meta read is a key index", func(t *testing.T) {
		fs := &FileSettings{
			CommMode: CommModePlain,
			SDMOptions: &SdmOptions{
				Access: SDMAccessRights{MetaRead: 0x01, FileRead: 0x0F, CounterRetrieval: 0x0F},
			},
		}
		_, err := SerializeFileSettings(fs, params)
		assertValidationError(t, err)
	})

	t.Run("mac offsets required when file read is not 0xF", func(t *testing.T) {
		fs := &FileSettings{
			CommMode: CommModePlain,
			SDMOptions: &SdmOptions{
				Access: SDMAccessRights{MetaRead: 0x0E, FileRead: 0x01, CounterRetrieval: 0x0F},
			},
		}
		_, err := SerializeFileSettings(fs, params)
		assertValidationError(t, err)
	})
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
}
