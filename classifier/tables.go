package classifier

import (
	"embed"
	"encoding/json"
	"fmt"
	"strconv"
)

//go:embed iso7816_ins.json gsm1111_ins.json uicc_ins_046.json uicc_ins_8ce.json uicc_ins_80.json
var tableFiles embed.FS

func loadTable(filename string) map[byte]InstructionEntry {
	raw, err := tableFiles.ReadFile(filename)
	if err != nil {
		panic(fmt.Sprintf("classifier: embedded table %s missing: %v", filename, err))
	}
	var byHex map[string]InstructionEntry
	if err := json.Unmarshal(raw, &byHex); err != nil {
		panic(fmt.Sprintf("classifier: malformed table %s: %v", filename, err))
	}
	table := make(map[byte]InstructionEntry, len(byHex))
	for key, entry := range byHex {
		ins, err := strconv.ParseUint(key, 16, 8)
		if err != nil {
			panic(fmt.Sprintf("classifier: bad INS key %q in %s: %v", key, filename, err))
		}
		table[byte(ins)] = entry
	}
	return table
}

var (
	iso7816Table  = loadTable("iso7816_ins.json")
	gsm1111Table  = loadTable("gsm1111_ins.json")
	uicc046Table  = loadTable("uicc_ins_046.json")
	uicc8ceTable  = loadTable("uicc_ins_8ce.json")
	uicc80Table   = loadTable("uicc_ins_80.json")
)
