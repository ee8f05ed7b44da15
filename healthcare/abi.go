package healthcare

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"

	cbcommon "github.com/tranvictor/carebook/common"
)

const HEALTHCARE_ABI string = `[{"inputs":[],"stateMutability":"nonpayable","type":"constructor"},{"inputs":[{"internalType":"uint256","name":"patientID","type":"uint256"},{"internalType":"string","name":"patientName","type":"string"},{"internalType":"string","name":"diagnosis","type":"string"},{"internalType":"string","name":"treatment","type":"string"}],"name":"addRecord","outputs":[],"stateMutability":"nonpayable","type":"function"},{"inputs":[{"internalType":"address","name":"provider","type":"address"}],"name":"authorizeProvider","outputs":[],"stateMutability":"nonpayable","type":"function"},{"inputs":[],"name":"getOwner","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"},{"inputs":[{"internalType":"uint256","name":"patientID","type":"uint256"}],"name":"getPatientRecords","outputs":[{"components":[{"internalType":"uint256","name":"recordID","type":"uint256"},{"internalType":"string","name":"patientName","type":"string"},{"internalType":"string","name":"diagnosis","type":"string"},{"internalType":"string","name":"treatment","type":"string"},{"internalType":"uint256","name":"timestamp","type":"uint256"}],"internalType":"struct HealthcareRecords.Record[]","name":"","type":"tuple[]"}],"stateMutability":"view","type":"function"}]`

const (
	methodAddRecord         = "addRecord"
	methodAuthorizeProvider = "authorizeProvider"
	methodGetOwner          = "getOwner"
	methodGetPatientRecords = "getPatientRecords"
)

// GetABI returns the parsed contract ABI.
func GetABI() *abi.ABI {
	result, err := abi.JSON(strings.NewReader(HEALTHCARE_ABI))
	if err != nil {
		panic(err)
	}
	return &result
}

// RawRecord is a record the way the ABI decodes it.
type RawRecord struct {
	RecordID    *big.Int
	PatientName string
	Diagnosis   string
	Treatment   string
	Timestamp   *big.Int
}

func (r RawRecord) toRecord() cbcommon.Record {
	return cbcommon.Record{
		RecordID:    bigToUint64(r.RecordID),
		PatientName: r.PatientName,
		Diagnosis:   r.Diagnosis,
		Treatment:   r.Treatment,
		Timestamp:   bigToUint64(r.Timestamp),
	}
}

func bigToUint64(b *big.Int) uint64 {
	if b == nil || b.Sign() < 0 {
		return 0
	}
	if !b.IsUint64() {
		return ^uint64(0)
	}
	return b.Uint64()
}
