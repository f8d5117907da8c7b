/*
Package ntag424 implements a host-side session engine for NXP NTAG 424 DNA
tags: PC/SC transport, AuthenticateEV2First, the three DESFire
communication modes (Plain/MAC/Full), file settings, native commands, SDM
verification (both the plaintext URL-mirroring form and the encrypted
offline-validation form), key management, and an encrypted-at-rest key
store.

# Access Rights Encoding

Per the DESFire specification, the 16-bit access rights value is organized
(MSB→LSB) as:

	[Read | Write | ReadWrite | ChangeAccessRights]
	bits 15-12: Read key
	bits 11-8:  Write key
	bits 7-4:   ReadWrite key
	bits 3-0:   ChangeAccessRights key

These are stored **little-endian** in the GetFileSettings response at byte
offsets 2-3:

	Byte offset 2 (AR1) = LSB: [ReadWrite nibble | ChangeAccessRights nibble]
	Byte offset 3 (AR2) = MSB: [Read nibble      | Write nibble]

Nibble values:

	0x0-0xD = key slot number (authenticate with that key to perform operation)
	0xE     = free (no authentication needed)
	0xF     = denied (operation never permitted)

FileAccessRights and SDMAccessRights give this a typed representation;
SerializeFileSettings and ParseFileSettings handle the byte-level packing.

# File Map

NTAG 424 DNA tags expose three application files after SelectNDEFApp (AID
D2760000850101):

File 1 (ID 0xE103) — Capability Container (CC)

	Size: 32 bytes. Type: standard data.
	Default AR: Read=free, Write=slot 0, RW=slot 0, CAR=slot 0
	Always readable via plain ISO READ BINARY (INS 0xB0).

File 2 (ID 0xE104) — NDEF File

	Size: 256 bytes. Type: standard data.
	Provisioned AR: Read=free, Write=slot 2, RW=slot 2, CAR=slot 0
	Readable via plain ISO READ BINARY when Read=free.
	When SDM enabled: tag dynamically inserts UID, counter, MAC into the URL
	on each read (see ParseSDMTextURL), or mirrors an encrypted PICC data
	block for offline validation (see ValidateOfflineSDM).

File 3 (ID 0xE105) — Proprietary Data

	Size: 128 bytes. Type: standard data.
	Default AR: Read=slot 0, Write=slot 0, RW=slot 0, CAR=slot 0
	Usually requires authentication to read.

# Communication Modes

Three modes, carried in bits 1:0 of the FileOption byte (type CommMode):

	0b00 Plain: no security, cleartext data.
	0b01 MAC:   integrity only — response carries an 8-byte truncated CMAC.
	0b11 Full:  confidentiality + integrity — AES-CBC data, CMAC response,
	            requires an active EV2 session. 0b10 is not a valid mode.

Send dispatches a native command under a given CommMode, handling MAC
construction/verification and Full-mode encryption/decryption uniformly; it
is the single place cmd_counter advances, strictly after the card responds
and strictly before response-MAC verification, so a MAC mismatch never
leaves the counter out of sync with what the card itself incremented.

Each file's actual comm mode for an operation depends on both the
FileOption bits and the access rights: if Read=0xE (free), the tag serves
data in plain regardless of FileOption.

# Operation: AuthenticateEV2First (INS 0x71 + 0xAF)

Two-phase handshake, performed by AuthenticateEV2First:

	Phase 1:  90 71 00 00 02 <keyNo> 00 00  →  EncRndB(16) | SW=91AF
	Phase 2:  90 AF 00 00 20 <Enc(RndA||RndB')(32)> 00  →  Enc(TI||RndA')(32) | SW=9100

Session key derivation (deriveSessionKeys, session.go):

	SV1 = A5 5A 00 01 00 80 || rndA[0:2] || (rndA[2:8] XOR rndB[0:6]) || rndB[6:16] || rndA[8:16]
	SV2 = 5A A5 00 01 00 80 || (same fill)
	Kenc = AES-CMAC(key, SV1)
	Kmac = AES-CMAC(key, SV2)

SelectNDEFApp or SelectFile invalidates any active session — select before
authenticating, or re-authenticate afterward.

# Operation: GetFileSettings / ChangeFileSettings (INS 0xF5 / 0x5F)

GetFileSettings reads a file's type, comm mode, access rights, size, and
SDM configuration, trying a plain read before falling back to CommMode
Full. ChangeFileSettings always uses CommMode Full. Both delegate encoding
to SerializeFileSettings/ParseFileSettings, which implement the exact
field-ordering and presence rules: the SDM offset tail varies with
meta_read (0xE enables UID/counter mirror offsets, 0x0-0x4 requires a
picc_data_offset, 0xF forbids one) and with file_read (0xF omits the
MAC input/output offsets entirely).

# Operation: ReadData / WriteData (INS 0xBD / 0x8D) — DESFire Native

ReadFileDataPlain and ReadFileDataSecure (Full mode, via Send) read a
standard data file; a boundary error (offset+length past file size) is
reported by ReadFileDataSecure as an empty read rather than an error.
WriteData writes under any CommMode, header [fileNo, offset u24 LE, length
u24 LE].

# Operation: ISO READ BINARY / UPDATE BINARY (INS 0xB0 / 0xD6)

ReadBinary and WriteNDEFData operate via plain ISO 7816 after SelectFile;
these commands cannot carry DESFire secure messaging, so a file whose Read
right requires authentication must be read via ReadFileDataSecure instead.
ReadBinary retries once on a wrong-Le status (SW=6Cxx), using the corrected
length from SW2.

# SetConfiguration (INS 0x5C)

SetConfiguration takes a ConfigurationUpdate — one of PiccConfig, SdmConfig,
CapabilityConfig, AuthFailCounterConfig, HardwareConfig — and always runs
under CommMode Full. AuthFailCounterConfig enforces 1 <= limit <= 0xFFFF
and 1 <= decrement <= 0xFFFF when enabled.

# ChangeKey (INS 0xC4)

For key number 0: payload is newKey || newKeyVersion (17 bytes). For
nonzero key numbers: payload is (oldKey XOR newKey) || newKeyVersion ||
JamCRC32(newKey) as 4 little-endian bytes (21 bytes). Always CommMode Full.

# Secure Dynamic Messaging

Two independent SDM schemes are supported:

  - Plaintext URL mirroring: DeriveSDMTextSessionKey, ParseSDMTextURL,
    VerifySDMTextMAC(Detailed), GenerateSDMTextURL — the tag substitutes
    UID/counter/MAC as ASCII hex into a templated URL on each tap.
  - Encrypted PICC data (offline validation): ValidateOfflineSDM decrypts
    the PICC data block, reconstructs SV2 from the decoded UID/counter per
    the tag byte's presence flags, and verifies the CMAC in constant time.
    A MAC mismatch returns (nil, nil) rather than an error, since it is an
    expected outcome when validating against the wrong key or forged data.

# Key Storage

KeyStore holds named 16-byte keys encrypted at rest under a
passphrase-derived key (Argon2id by default via SaveKeyStore, or
PBKDF2-HMAC-SHA256 via SaveKeyStorePBKDF2 for memory-constrained
environments), sealed with AES-256-GCM.

# Complete Fail State Reference

ISO 7816 Status Words:

	SW=9000  Success
	SW=6982  Security status not satisfied (need auth)
	SW=6A82  File not found
	SW=6A86  Incorrect P1/P2
	SW=6C00  Wrong Le (correct Le in SW2 low byte)
	SW=6700  Wrong length

DESFire Status Words:

	SW=9100  Success
	SW=91AF  Additional frame expected
	SW=917E  Length error
	SW=91AE  Authentication error (wrong key for slot)
	SW=919D  Permission denied
	SW=919E  Parameter error
	SW=911C  Boundary error (read past file end)
	SW=9140  No changes
	SW=91CA  Command aborted

Session/Crypto errors:

	ErrResponseMacMismatch  Session desynced or tampered response. Re-authenticate.
	ErrAuthMismatch         Key mismatch during EV2First.
	ErrMalformedPadding     Decrypted response has invalid ISO 9797-1 method 2 padding.
*/
package ntag424
