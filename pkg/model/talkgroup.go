package model

type TalkgroupInfo struct {
	Hex         string `json:"hex" yaml:"hex"`
	AlphaTag    string `json:"alphaTag" yaml:"alpha_tag"`
	Mode        string `json:"mode" yaml:"mode"`
	Description string `json:"description" yaml:"description"`
	Tag         string `json:"tag" yaml:"tag"`
	Category    string `json:"category" yaml:"category"`
}
