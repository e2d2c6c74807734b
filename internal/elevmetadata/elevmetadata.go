package elevmetadata

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/szymonmasternak/area51-elevator/internal/elevconfig"
	"github.com/szymonmasternak/area51-elevator/internal/logger"
)

var Log = logger.GetLogger()

type AgentMetaData struct {
	Name      string `json:"name"`
	Clearance string `json:"clearance"`
}

// SimMetaData identifies one run of the simulation in the logs.
type SimMetaData struct {
	SoftwareVersion string          `json:"software_version"`
	RunID           uuid.UUID       `json:"run_id"`
	Floors          []string        `json:"floors"`
	Agents          []AgentMetaData `json:"agents"`
}

func New(softwareVersion string, cfg *elevconfig.Config) *SimMetaData {
	metaData := &SimMetaData{
		SoftwareVersion: softwareVersion,
		RunID:           uuid.New(),
		Floors:          append([]string(nil), cfg.Floors...),
	}
	for _, agent := range cfg.Agents {
		metaData.Agents = append(metaData.Agents, AgentMetaData{
			Name:      agent.Name,
			Clearance: agent.Clearance.Level().String(),
		})
	}
	return metaData
}

func (simMetaData *SimMetaData) String() string {
	jsonData, err := json.Marshal(simMetaData)

	if err != nil {
		Log.Error().Msg("Error Serialising SimMetaData Object to JSON")
		return ""
	}
	return string(jsonData)
}
