package ntag424

// TagVersion holds the hardware and software version information returned
// by GetVersion.
type TagVersion struct {
	HWVendorID    byte
	HWType        byte
	HWSubType     byte
	HWMajorVer    byte
	HWMinorVer    byte
	HWStorageSize byte
	HWProtocol    byte
	SWVendorID    byte
	SWType        byte
	SWSubType     byte
	SWMajorVer    byte
	SWMinorVer    byte
	SWStorageSize byte
	SWProtocol    byte
	UID           []byte
	BatchNo       []byte
	FabKey        byte
	ProdYear      byte
	ProdWeek      byte
}

// GetVersion retrieves hardware/software version, UID, batch number, and
// production date via the three-part native GetVersion (0x60) exchange.
func GetVersion(card Card) (*TagVersion, error) {
	apdu1 := []byte{0x90, 0x60, 0x00, 0x00, 0x00}
	resp1, sw, err := Transmit(card, apdu1)
	if err != nil {
		return nil, err
	}
	if sw != SWMoreData || len(resp1) != 7 {
		return nil, &MalformedResponseError{Len: len(resp1), Reason: "GetVersion part 1"}
	}

	apdu2 := []byte{0x90, 0xAF, 0x00, 0x00, 0x00}
	resp2, sw, err := Transmit(card, apdu2)
	if err != nil {
		return nil, err
	}
	if sw != SWMoreData || len(resp2) != 7 {
		return nil, &MalformedResponseError{Len: len(resp2), Reason: "GetVersion part 2"}
	}

	apdu3 := []byte{0x90, 0xAF, 0x00, 0x00, 0x00}
	resp3, sw, err := Transmit(card, apdu3)
	if err != nil {
		return nil, err
	}
	if !SwOK(sw) || len(resp3) != 14 {
		return nil, &MalformedResponseError{Len: len(resp3), Reason: "GetVersion part 3"}
	}

	return &TagVersion{
		HWVendorID:    resp1[0],
		HWType:        resp1[1],
		HWSubType:     resp1[2],
		HWMajorVer:    resp1[3],
		HWMinorVer:    resp1[4],
		HWStorageSize: resp1[5],
		HWProtocol:    resp1[6],
		SWVendorID:    resp2[0],
		SWType:        resp2[1],
		SWSubType:     resp2[2],
		SWMajorVer:    resp2[3],
		SWMinorVer:    resp2[4],
		SWStorageSize: resp2[5],
		SWProtocol:    resp2[6],
		UID:           append([]byte{}, resp3[0:7]...),
		BatchNo:       append([]byte{}, resp3[7:12]...),
		FabKey:        resp3[12],
		ProdYear:      resp3[13] >> 4,
		ProdWeek:      resp3[13] & 0x0F,
	}, nil
}
