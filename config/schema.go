package config

const configSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "socket_path": {"type": "string", "minLength": 1},
    "log_level": {"enum": ["debug", "info", "warn", "error", "DEBUG", "INFO", "WARN", "ERROR"]},
    "player_allies": {"type": "array", "items": {"type": "string"}},
    "hauler_roles": {"type": "array", "items": {"type": "string", "minLength": 1}},
    "allocation": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "turret_pool_ttl": {"$ref": "#/definitions/ticks"},
        "energy_source_ttl": {"$ref": "#/definitions/ticks"},
        "single_turret_min_energy": {"$ref": "#/definitions/energy"},
        "pool_min_energy": {"$ref": "#/definitions/energy"},
        "action_energy": {"$ref": "#/definitions/energy"},
        "heal_min_energy": {"$ref": "#/definitions/energy"},
        "heal_select_ratio": {"$ref": "#/definitions/ratio"},
        "heal_keep_ratio": {"$ref": "#/definitions/ratio"},
        "heal_scan_interval": {"$ref": "#/definitions/ticks"},
        "repair_min_energy": {"$ref": "#/definitions/energy"},
        "repair_scan_interval": {"$ref": "#/definitions/ticks"},
        "advisory_interval": {"$ref": "#/definitions/ticks"},
        "repair_rotation_cap": {"type": "integer", "minimum": 1},
        "repair_nominal": {"type": "integer", "minimum": 1},
        "container_skip_damage": {"$ref": "#/definitions/ratio"},
        "diagnostics_every": {"type": "integer", "minimum": 0}
      }
    },
    "advisory": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "condition": {"type": "string"},
        "every_ticks": {"$ref": "#/definitions/ticks"}
      }
    },
    "state": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "driver": {"enum": ["sqlite", "file", "none"]},
        "path": {"type": "string"},
        "persist_every_ticks": {"$ref": "#/definitions/ticks"}
      }
    },
    "observer": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "addr": {"type": "string"}
      }
    }
  },
  "definitions": {
    "ticks": {"type": "integer", "minimum": 1},
    "energy": {"type": "integer", "minimum": 0},
    "ratio": {"type": "number", "minimum": 0, "maximum": 1}
  }
}`
